package auth

import (
	"pairchat/domain"
	"pairchat/errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRegister checks a registration before any hashing happens.
// A missing field reports the generic "all fields are required" failure.
func ValidateRegister(cmd domain.RegisterCommand) error {
	return validationError(validate.Struct(cmd))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.InvalidArgument("invalid request")
	}
	for _, fe := range fieldErrors {
		if fe.Tag() == "required" {
			return errors.ErrMissingFields
		}
	}
	fe := fieldErrors[0]
	return errors.InvalidArgument("invalid %s", strings.ToLower(fe.Field()))
}
