package rbac

import (
	"context"
	"errors"

	"github.com/userdesk/userdesk/internal/platform/httpx"
)

// ErrUserNotFound indicates the queried user does not exist.
var ErrUserNotFound = httpx.Errorf(httpx.ErrNotFound, "Utilisateur non trouvé")

// Service resolves effective permissions through role membership. Results
// are never cached: every call reflects the bindings committed right now.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// HasPermission reports whether some role held by the user is bound to a
// permission matching (ressource, action) exactly.
func (s *Service) HasPermission(ctx context.Context, userID int64, ressource, action string) (bool, error) {
	return s.repo.HasPermission(ctx, userID, ressource, action)
}

// ListPermissions returns the user's distinct effective permissions ordered
// by (ressource, action). An empty result is valid; existence of the user is
// the caller's concern.
func (s *Service) ListPermissions(ctx context.Context, userID int64) ([]Permission, error) {
	return s.repo.PermissionsForUser(ctx, userID)
}

// UserWithRoles returns the user together with all held role names.
func (s *Service) UserWithRoles(ctx context.Context, userID int64) (*UserProfile, error) {
	profile, err := s.repo.UserWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return profile, nil
}
