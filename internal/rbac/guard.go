package rbac

import (
	"context"
	"net/http"

	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/shared"
)

// ErrPermissionDenied rejects callers lacking the required capability.
var ErrPermissionDenied = httpx.Errorf(httpx.ErrForbidden, "Permission refusée")

// RequirePermission returns a guard that checks the authenticated identity
// holds the (ressource, action) capability. It must run after a guard that
// attached the identity.
func RequirePermission(service *Service, ressource, action string) httpx.Guard {
	return func(r *http.Request) (context.Context, error) {
		identity, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			return nil, httpx.ErrUnauthorized
		}
		granted, err := service.HasPermission(r.Context(), identity.UserID, ressource, action)
		if err != nil {
			return nil, err
		}
		if !granted {
			return nil, ErrPermissionDenied
		}
		return nil, nil
	}
}
