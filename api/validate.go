package api

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// intlPhone is an E.164-style number with an optional leading plus.
var intlPhone = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("intl_phone", func(fl validator.FieldLevel) bool {
		return intlPhone.MatchString(fl.Field().String())
	})
	return v
}
