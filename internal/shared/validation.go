package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ronak-creation/storefront/internal/platform/httpx"
)

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Unwrap maps form errors onto 400 responses.
func (e FieldErrors) Unwrap() error {
	return httpx.ErrValidation
}

// Fields exposes the messages to API error responses.
func (e FieldErrors) Fields() map[string]string {
	return e
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ValidateStruct runs validator tags on s and converts failures to
// FieldErrors keyed by struct field name. Slice element errors are reported
// once under the slice field.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if i := strings.IndexByte(key, '['); i > 0 {
			key = key[:i]
		}
		if _, seen := out[key]; !seen {
			out[key] = message(fe)
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof", "fabric_category", "work_category":
		return "is not a known option"
	case "hex6":
		return "must be a #RRGGBB colour"
	}
	return "is invalid"
}
