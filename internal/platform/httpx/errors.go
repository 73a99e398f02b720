// Package httpx writes JSON and problem+json responses for the API routes.
package httpx

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
)

// fielder is implemented by validation errors that can name the offending
// inputs, shared.FieldErrors among them.
type fielder interface {
	Fields() map[string]string
}

// RespondError maps err to a problem response. Unknown errors never leak
// their message.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		p := ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Detail: err.Error()}
		var f fielder
		if errors.As(err, &f) {
			p.Errors = f.Fields()
		}
		WriteProblem(w, p)
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
