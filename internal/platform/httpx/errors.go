package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// statusError couples a sentinel class with a user-facing detail message.
// Error() returns only the detail so responses never expose internals.
type statusError struct {
	class  error
	detail string
}

func (e *statusError) Error() string { return e.detail }
func (e *statusError) Unwrap() error { return e.class }

// Errorf builds an error of the given sentinel class carrying a
// user-facing detail message.
func Errorf(class error, format string, args ...any) error {
	return &statusError{class: class, detail: fmt.Sprintf(format, args...)}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unclassified errors surface as a bare 500 with no detail.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
