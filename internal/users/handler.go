package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/rbac"
	"github.com/userdesk/userdesk/internal/shared"
)

// Handler wires HTTP endpoints for the administrative user directory.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     *rbac.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacService *rbac.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbacService,
		validate: validator.New(),
	}
}

// MountRoutes registers directory routes on the provided router. Every route
// runs the session guard first, then a permission check on the users
// resource.
func (h *Handler) MountRoutes(r chi.Router, session httpx.Guard) {
	r.Group(func(r chi.Router) {
		r.Use(httpx.Guards(session, rbac.RequirePermission(h.rbac, "users", "read")))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/permissions", h.handlePermissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(httpx.Guards(session, rbac.RequirePermission(h.rbac, "users", "write")))
		r.Put("/{id}", h.handleUpdate)
	})
	r.Group(func(r chi.Router) {
		r.Use(httpx.Guards(session, rbac.RequirePermission(h.rbac, "users", "delete")))
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, pagination, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      profiles,
		"pagination": pagination,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) {
			h.logger.Error("get user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	permissions, err := h.rbac.ListPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list user permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if len(permissions) == 0 {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrNotFound, "Utilisateur ou permissions introuvables"))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"utilisateurId": id,
		"permissions":   permissions,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "Données de mise à jour invalides")
		return
	}

	profile, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("update user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Utilisateur mis à jour avec succès",
		"user":    profile,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(r.Context(), id, identity.UserID); err != nil {
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) {
			h.logger.Error("delete user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Utilisateur ID %d supprimé avec succès", id),
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, httpx.Errorf(httpx.ErrValidation, "Identifiant utilisateur invalide")
	}
	return id, nil
}
