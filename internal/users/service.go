package users

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/rbac"
	"github.com/userdesk/userdesk/internal/shared"
)

// ErrSelfDelete rejects an account deleting itself.
var ErrSelfDelete = httpx.Errorf(httpx.ErrValidation, "Impossible de supprimer votre propre compte")

// ProfileResolver resolves a user together with their role names.
type ProfileResolver interface {
	UserWithRoles(ctx context.Context, userID int64) (*rbac.UserProfile, error)
}

// Service implements the administrative user directory.
type Service struct {
	logger      *slog.Logger
	repo        Repository
	resolver    ProfileResolver
	strictRoles bool
}

// NewService constructs the directory service. With strictRoles set, updates
// naming an unprovisioned role are rejected instead of silently dropping it.
func NewService(logger *slog.Logger, repo Repository, resolver ProfileResolver, strictRoles bool) *Service {
	return &Service{logger: logger, repo: repo, resolver: resolver, strictRoles: strictRoles}
}

// List returns one page of users with pagination metadata. The count and the
// page itself are fetched concurrently, each on its own pooled connection.
func (s *Service) List(ctx context.Context, page, perPage int) ([]rbac.UserProfile, shared.Pagination, error) {
	page = shared.ClampPage(page)
	perPage = shared.ClampPerPage(perPage)

	var (
		total    int
		profiles []rbac.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.CountUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profiles, err = s.repo.ListUsers(gctx, perPage, (page-1)*perPage)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, shared.Pagination{}, err
	}
	if profiles == nil {
		profiles = []rbac.UserProfile{}
	}
	return profiles, shared.NewPagination(page, perPage, total), nil
}

// Get returns a single user with their roles.
func (s *Service) Get(ctx context.Context, id int64) (*rbac.UserProfile, error) {
	return s.resolver.UserWithRoles(ctx, id)
}

// Update applies the provided fields and, when Roles is present, replaces
// the whole role assignment set. An update without any field still bumps the
// modification timestamp. The returned profile reflects the new state.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (*rbac.UserProfile, error) {
	fields := UpdateFields{Nom: req.Nom, Prenom: req.Prenom, Actif: req.Actif}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &hash
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.UpdateUser(ctx, id, fields)
		if err != nil {
			return err
		}
		if !found {
			return rbac.ErrUserNotFound
		}
		if req.Roles == nil {
			return nil
		}
		roleIDs, err := s.resolveRoles(ctx, tx, *req.Roles)
		if err != nil {
			return err
		}
		return tx.ReplaceUserRoles(ctx, id, roleIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.resolver.UserWithRoles(ctx, id)
}

// resolveRoles maps requested role names to ids. Names are lowercased and
// deduplicated first. Unknown names either fail the update or are dropped
// with a warning, depending on strictRoles.
func (s *Service) resolveRoles(ctx context.Context, tx TxRepository, names []string) ([]int64, error) {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	known, err := tx.RoleIDsByNames(ctx, normalized)
	if err != nil {
		return nil, err
	}
	roleIDs := make([]int64, 0, len(normalized))
	for _, name := range normalized {
		id, ok := known[name]
		if !ok {
			if s.strictRoles {
				return nil, httpx.Errorf(httpx.ErrValidation, "Rôle inconnu: %s", name)
			}
			s.logger.Warn("dropping unknown role", slog.String("role", name))
			continue
		}
		roleIDs = append(roleIDs, id)
	}
	return roleIDs, nil
}

// Delete removes a user and every dependent row in one transaction. Callers
// cannot delete their own account.
func (s *Service) Delete(ctx context.Context, id, callerID int64) error {
	if id == callerID {
		return ErrSelfDelete
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteUserRoles(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteUserSessions(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteUserLogs(ctx, id); err != nil {
			return err
		}
		found, err := tx.DeleteUser(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return rbac.ErrUserNotFound
		}
		return nil
	})
}
