// Package httpx carries the HTTP conventions shared by every handler:
// JSON bodies, RFC7807 problems for failures, classified domain errors,
// and the guard pipeline.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail is the RFC7807 body returned by every failing endpoint.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// problemType is deliberately generic; clients dispatch on status and
// detail, not on a type URI.
const problemType = "about:blank"

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes the request body into target. A body that does not
// parse comes back as a validation-class error so handlers can hand it
// straight to RespondError.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return Errorf(ErrValidation, "Corps de requête invalide")
	}
	return nil
}
