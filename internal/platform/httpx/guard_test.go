package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestGuardsRunInOrderAndChainContext(t *testing.T) {
	var order []string
	first := func(r *http.Request) (context.Context, error) {
		order = append(order, "first")
		return context.WithValue(r.Context(), ctxKey("a"), "set"), nil
	}
	second := func(r *http.Request) (context.Context, error) {
		order = append(order, "second")
		require.Equal(t, "set", r.Context().Value(ctxKey("a")))
		return nil, nil
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "set", r.Context().Value(ctxKey("a")))
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	Guards(first, second)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestGuardsStopAtFirstRejection(t *testing.T) {
	deny := func(r *http.Request) (context.Context, error) {
		return nil, Errorf(ErrForbidden, "Permission refusée")
	}
	reached := false
	after := func(r *http.Request) (context.Context, error) {
		reached = true
		return nil, nil
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	rec := httptest.NewRecorder()
	Guards(deny, after)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, reached)
	require.Contains(t, rec.Body.String(), "Permission refusée")
}

func TestRespondErrorClassifiesSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Errorf(ErrNotFound, "Utilisateur non trouvé"), http.StatusNotFound},
		{Errorf(ErrDuplicate, "Email déjà utilisé"), http.StatusConflict},
		{Errorf(ErrValidation, "donnée invalide"), http.StatusBadRequest},
		{Errorf(ErrForbidden, "Permission refusée"), http.StatusForbidden},
		{Errorf(ErrUnauthorized, "Token invalide ou expiré"), http.StatusUnauthorized},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
	}
}

// Internal faults must not leak their message into the response body.
func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, context.DeadlineExceeded)
	require.NotContains(t, rec.Body.String(), "deadline")
}
