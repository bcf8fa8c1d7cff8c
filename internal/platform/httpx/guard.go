package httpx

import (
	"context"
	"net/http"
)

// Guard inspects a request before it reaches a handler. It either proceeds,
// optionally enriching the context, or rejects with an error that
// RespondError can classify. A nil context means "keep the current one".
type Guard func(r *http.Request) (context.Context, error)

// Guards runs guards in order and stops at the first rejection. Each guard
// sees the context produced by the previous one.
func Guards(guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, guard := range guards {
				ctx, err := guard(r)
				if err != nil {
					RespondError(w, err)
					return
				}
				if ctx != nil {
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
