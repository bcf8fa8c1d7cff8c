package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/userdesk/userdesk/internal/observability"
	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/rbac"
	"github.com/userdesk/userdesk/internal/shared"
)

// ProfileResolver aggregates a user with their role names for display.
type ProfileResolver interface {
	UserWithRoles(ctx context.Context, userID int64) (*rbac.UserProfile, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	resolver ProfileResolver
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver ProfileResolver, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		resolver: resolver,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(httpx.Guards(Bearer(h.service)))
		r.Get("/profile", h.handleProfile)
		r.Post("/logout", h.handleLogout)
		r.Get("/logs", h.handleLogs)
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Nom      string `json:"nom" validate:"omitempty,max=100"`
	Prenom   string `json:"prenom" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	DateCreation time.Time `json:"date_creation"`
}

type sessionUserView struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

type profileView struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Actif        bool      `json:"actif"`
	DateCreation time.Time `json:"date_creation"`
	Roles        []string  `json:"roles"`
}

type auditView struct {
	DateHeure      time.Time `json:"date_heure"`
	EmailTentative string    `json:"email_tentative"`
	AdresseIP      string    `json:"adresse_ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	Succes         bool      `json:"succes"`
	Message        string    `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "Email et mot de passe requis")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Nom, req.Prenom)
	if err != nil {
		if !errors.Is(err, httpx.ErrDuplicate) {
			h.logger.Error("register user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Utilisateur créé avec succès",
		"user": userView{
			ID:           user.ID,
			Email:        user.Email,
			Nom:          user.Nom,
			Prenom:       user.Prenom,
			DateCreation: user.DateCreation,
		},
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, httpx.ErrUnauthorized):
			h.metrics.ObserveLogin("invalid_credentials")
		case errors.Is(err, httpx.ErrForbidden):
			h.metrics.ObserveLogin("disabled")
		default:
			h.metrics.ObserveLogin("error")
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	h.metrics.ObserveLogin("success")
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Connexion réussie",
		"token":   result.Token,
		"user": sessionUserView{
			ID:     result.User.ID,
			Email:  result.User.Email,
			Nom:    result.User.Nom,
			Prenom: result.User.Prenom,
		},
		"expiresAt": result.ExpiresAt,
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	profile, err := h.resolver.UserWithRoles(r.Context(), identity.UserID)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			h.logger.Error("load profile", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": toProfileView(profile)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity, _ := shared.IdentityFromContext(r.Context())
	token, _ := shared.TokenFromContext(r.Context())
	if err := h.service.Logout(r.Context(), token, identity.Email); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Déconnexion réussie"})
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	logs, err := h.service.RecentLogs(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list auth logs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]auditView, 0, len(logs))
	for _, entry := range logs {
		views = append(views, auditView{
			DateHeure:      entry.DateHeure,
			EmailTentative: entry.EmailTentative,
			AdresseIP:      entry.AdresseIP,
			UserAgent:      entry.UserAgent,
			Succes:         entry.Succes,
			Message:        entry.Message,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": views})
}

// clientIP returns the caller's bare address for the audit trail. RealIP
// rewrites RemoteAddr from forwarding headers when present; without them
// RemoteAddr keeps its host:port form, so the port is stripped here.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func toProfileView(profile *rbac.UserProfile) profileView {
	return profileView{
		ID:           profile.ID,
		Email:        profile.Email,
		Nom:          profile.Nom,
		Prenom:       profile.Prenom,
		Actif:        profile.Actif,
		DateCreation: profile.DateCreation,
		Roles:        profile.Roles,
	}
}
