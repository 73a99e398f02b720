package products

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ronak-creation/storefront/internal/catalog"
)

var hex6 = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fabric_category", func(fl validator.FieldLevel) bool {
		return catalog.IsFabricCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("work_category", func(fl validator.FieldLevel) bool {
		return catalog.IsWorkCategory(fl.Field().String())
	})
	_ = v.RegisterValidation("hex6", func(fl validator.FieldLevel) bool {
		return hex6.MatchString(fl.Field().String())
	})
	return v
}
