// Package utils holds small helpers shared across layers.
package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct tag validation on the given value.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
