package common

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs validator tags over a request struct and wraps any
// failure in ErrValidation so it maps to a 400 before any remote call is made.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return Errorf("%v: %w", err, ErrValidation)
	}
	return nil
}
