package utils

import (
	"errors"

	"github.com/alimikegami/crispy-cravings/payment-service/pkg/response"
	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func CreateValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// ValidationErrors flattens validator errors into the response shape. Other
// errors yield nil.
func ValidationErrors(err error) []response.ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]response.ValidationError, len(verrs))
	for i, fe := range verrs {
		out[i] = response.ValidationError{Field: fe.Namespace(), Tag: fe.Tag()}
	}
	return out
}
