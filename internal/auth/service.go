package auth

import (
	"context"
	"errors"
	"time"

	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/shared"
)

const (
	defaultSessionTTL = 24 * time.Hour
	recentLogsLimit   = 50
)

// Audit messages, stored verbatim in logs_connexion.
const (
	msgEmailUnknown    = "Email inexistant"
	msgAccountDisabled = "Compte désactivé"
	msgBadPassword     = "Mot de passe invalide"
	msgLoginOK         = "Connexion réussie"
	msgLogoutOK        = "Déconnexion réussie"
)

// Service wraps authentication business rules: registration, the login
// transaction with its audit trail, and the session token lifecycle.
type Service struct {
	repo       Repository
	now        func() time.Time
	sessionTTL time.Duration
	newToken   func() (string, error)
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithTokenSource overrides token generation (useful for tests).
func WithTokenSource(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newToken = fn
		}
	}
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	svc := &Service{
		repo:       repo,
		now:        time.Now,
		sessionTTL: defaultSessionTTL,
		newToken:   NewToken,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates a user with the default "user" role bound, as one atomic
// unit. The in-transaction email check is a fast path; the unique constraint
// remains the final authority against races.
func (s *Service) Register(ctx context.Context, email, password, nom, prenom string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	var user *User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		taken, err := tx.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		user, err = tx.InsertUser(ctx, email, hash, nom, prenom)
		if err != nil {
			return err
		}
		return tx.AssignRoleByName(ctx, user.ID, "user")
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login runs the full login transaction. Every outcome, including failures,
// commits its audit entry: a failed attempt is a successful observation.
// Only unexpected store faults roll the transaction back.
func (s *Service) Login(ctx context.Context, email, password, sourceAddr, userAgent string) (*LoginResult, error) {
	var (
		result   *LoginResult
		loginErr error
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		audit := LoginAudit{
			EmailTentative: email,
			AdresseIP:      sourceAddr,
			UserAgent:      userAgent,
		}

		creds, err := tx.CredentialsByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, httpx.ErrNotFound) {
				return err
			}
			audit.Message = msgEmailUnknown
			loginErr = ErrInvalidCredentials
			return tx.InsertAudit(ctx, audit)
		}

		audit.UtilisateurID = &creds.ID
		if !creds.Actif {
			audit.Message = msgAccountDisabled
			loginErr = ErrAccountDisabled
			return tx.InsertAudit(ctx, audit)
		}
		if !VerifyPassword(creds.PasswordHash, password) {
			audit.Message = msgBadPassword
			loginErr = ErrInvalidCredentials
			return tx.InsertAudit(ctx, audit)
		}

		token, err := s.newToken()
		if err != nil {
			return err
		}
		expiresAt := s.now().Add(s.sessionTTL)
		if err := tx.InsertSession(ctx, creds.ID, token, expiresAt); err != nil {
			return err
		}
		audit.Succes = true
		audit.Message = msgLoginOK
		if err := tx.InsertAudit(ctx, audit); err != nil {
			return err
		}

		result = &LoginResult{
			Token:     token,
			ExpiresAt: expiresAt,
			User: User{
				ID:     creds.ID,
				Email:  creds.Email,
				Nom:    creds.Nom,
				Prenom: creds.Prenom,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if loginErr != nil {
		return nil, loginErr
	}
	return result, nil
}

// ValidateToken resolves a bearer token to the owning user's identity. The
// check re-reads session and user state each call; deactivating a user
// invalidates their unexpired tokens immediately.
func (s *Service) ValidateToken(ctx context.Context, token string) (*shared.Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	identity, err := s.repo.IdentityByToken(ctx, token)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return identity, nil
}

// Logout revokes the session behind the token and logs the disconnect.
// Revoking an already-inactive or unknown token is a no-op success and
// produces no duplicate audit entry.
func (s *Service) Logout(ctx context.Context, token, callerEmail string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		userID, revoked, err := tx.RevokeSession(ctx, token)
		if err != nil {
			return err
		}
		if !revoked {
			return nil
		}
		return tx.InsertAudit(ctx, LoginAudit{
			UtilisateurID:  &userID,
			EmailTentative: callerEmail,
			Succes:         true,
			Message:        msgLogoutOK,
		})
	})
}

// RecentLogs returns the caller's last authentication attempts, newest first.
func (s *Service) RecentLogs(ctx context.Context, userID int64) ([]LoginAudit, error) {
	return s.repo.RecentLogs(ctx, userID, recentLogsLimit)
}
