package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags over the input and converts failures
// into field-level errors for the response envelope.
func ValidateStruct(s interface{}) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errs []FieldError
	for _, fe := range err.(validator.ValidationErrors) {
		field := strings.ToLower(fe.Field())
		var message string
		switch fe.Tag() {
		case "required":
			message = field + " est requis"
		case "min":
			message = field + " doit contenir au moins " + fe.Param() + " caractères"
		case "max":
			message = field + " doit contenir au plus " + fe.Param() + " caractères"
		case "email":
			message = field + " doit être un email valide"
		case "gte":
			message = field + " doit être supérieur ou égal à " + fe.Param()
		case "oneof":
			message = field + " doit être parmi: " + fe.Param()
		default:
			message = field + " est invalide"
		}
		errs = append(errs, FieldError{Field: field, Message: message, Value: fe.Value()})
	}
	return errs
}
