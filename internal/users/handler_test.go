package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/rbac"
	"github.com/userdesk/userdesk/internal/shared"
)

type stubRBACRepo struct {
	repo   *memDirRepo
	grants map[string]bool
	perms  map[int64][]rbac.Permission
}

func (s stubRBACRepo) HasPermission(ctx context.Context, userID int64, ressource, action string) (bool, error) {
	return s.grants[fmt.Sprintf("%d/%s/%s", userID, ressource, action)], nil
}

func (s stubRBACRepo) PermissionsForUser(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	return s.perms[userID], nil
}

func (s stubRBACRepo) UserWithRoles(ctx context.Context, userID int64) (*rbac.UserProfile, error) {
	u, ok := s.repo.users[userID]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	profile := u.profile
	return &profile, nil
}

// identityGuard stands in for the bearer guard in handler tests.
func identityGuard(userID int64) httpx.Guard {
	return func(r *http.Request) (context.Context, error) {
		if r.Header.Get("Authorization") == "" {
			return nil, httpx.Errorf(httpx.ErrUnauthorized, "Token manquant ou format invalide")
		}
		return shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: userID}), nil
	}
}

func newDirectoryRouter(repo *memDirRepo, callerID int64, grants map[string]bool, perms map[int64][]rbac.Permission) http.Handler {
	rbacSvc := rbac.NewService(stubRBACRepo{repo: repo, grants: grants, perms: perms})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, repo, rbacSvc, false)
	handler := NewHandler(logger, svc, rbacSvc)

	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		handler.MountRoutes(r, identityGuard(callerID))
	})
	return r
}

func adminGrants(userID int64) map[string]bool {
	grants := map[string]bool{}
	for _, action := range []string{"read", "write", "delete"} {
		grants[fmt.Sprintf("%d/users/%s", userID, action)] = true
	}
	return grants
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader = strings.NewReader(body)
	if body == "" {
		reader = nil
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListEndpoint(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	repo.addUser(2, "bob@example.com", "user")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodGet, "/api/users?page=1&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users      []rbac.UserProfile `json:"users"`
		Pagination shared.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	require.Equal(t, int64(2), body.Users[0].ID)
	require.Equal(t, 2, body.Pagination.Total)
	require.Equal(t, 2, body.Pagination.TotalPages)
}

func TestListEndpointForbiddenWithoutGrant(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "bob@example.com", "user")
	router := newDirectoryRouter(repo, 1, map[string]bool{}, nil)

	rec := doRequest(router, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Permission refusée")
}

func TestGetEndpointUnknownUser(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodGet, "/api/users/42", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Utilisateur non trouvé")
}

func TestGetEndpointInvalidID(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodGet, "/api/users/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPermissionsEndpoint(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	repo.addUser(2, "bob@example.com", "user")
	perms := map[int64][]rbac.Permission{
		2: {{Nom: "lecture_utilisateurs", Ressource: "users", Action: "read"}},
	}
	router := newDirectoryRouter(repo, 1, adminGrants(1), perms)

	rec := doRequest(router, http.MethodGet, "/api/users/2/permissions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"utilisateurId":2`)
	require.Contains(t, rec.Body.String(), "lecture_utilisateurs")
}

func TestPermissionsEndpointEmpty(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodGet, "/api/users/42/permissions", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Utilisateur ou permissions introuvables")
}

func TestUpdateEndpoint(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	repo.addUser(2, "bob@example.com", "user")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodPut, "/api/users/2", `{"nom":"Martin","roles":["admin"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Utilisateur mis à jour avec succès")
	require.Equal(t, "Martin", repo.users[2].profile.Nom)
	require.Equal(t, []string{"admin"}, repo.users[2].profile.Roles)
}

func TestDeleteEndpoint(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	repo.addUser(2, "bob@example.com", "user")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodDelete, "/api/users/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Utilisateur ID 2 supprimé avec succès")
	require.NotContains(t, repo.users, int64(2))
}

func TestDeleteEndpointSelf(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	rec := doRequest(router, http.MethodDelete, "/api/users/1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Impossible de supprimer votre propre compte")
}

func TestEndpointsRejectMissingToken(t *testing.T) {
	repo := newMemDirRepo()
	repo.addUser(1, "admin@example.com", "admin")
	router := newDirectoryRouter(repo, 1, adminGrants(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
