package http

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// newValidator registers the custom field checks used by booking requests:
// dateonly ("2006-01-02") and timeofday ("15:04").
func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})

	return v
}

var validate = newValidator()
