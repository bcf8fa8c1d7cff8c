package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/userdesk/userdesk/internal/platform/httpx"
	"github.com/userdesk/userdesk/internal/shared"
)

const bearerPrefix = "Bearer "

// Bearer returns a guard that authenticates the Authorization header.
// Absence or a malformed prefix is rejected before any store access; a
// well-formed token is validated against current session and user state.
func Bearer(service *Service) httpx.Guard {
	return func(r *http.Request) (context.Context, error) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			return nil, ErrMissingToken
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		identity, err := service.ValidateToken(r.Context(), token)
		if err != nil {
			return nil, err
		}
		ctx := shared.ContextWithIdentity(r.Context(), *identity)
		return shared.ContextWithToken(ctx, token), nil
	}
}
