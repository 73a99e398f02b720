package catalog

import (
	"errors"
	"fmt"

	"github.com/ronak-creation/storefront/internal/platform/httpx"
)

// ErrNotFound is returned when a product does not exist or is hidden.
var ErrNotFound = fmt.Errorf("catalog: product %w", httpx.ErrNotFound)

// ValidationError reports a malformed request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match the error against httpx.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return httpx.ErrValidation
}

// Fields names the offending parameter in API problem responses.
func (e *ValidationError) Fields() map[string]string {
	return map[string]string{e.Field: e.Message}
}

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err means the product is missing or hidden.
func IsNotFound(err error) bool {
	return errors.Is(err, httpx.ErrNotFound)
}
