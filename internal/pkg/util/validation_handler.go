package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParamError a request DTO failed its validate tags
type ParamError struct {
	Field string
	Rule  string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("field [%s] failed rule [%s]", e.Field, e.Rule)
}

func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			return &ParamError{Field: firstError.Field(), Rule: firstError.Tag()}
		}
		return err
	}
	return nil
}
