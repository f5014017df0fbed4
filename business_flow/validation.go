package businessflow

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// newValidator builds a validator that reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// At least one upper case letter, one lower case letter and one digit
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		var hasUpper, hasLower, hasDigit bool
		for _, char := range fl.Field().String() {
			switch {
			case unicode.IsUpper(char):
				hasUpper = true
			case unicode.IsLower(char):
				hasLower = true
			case unicode.IsDigit(char):
				hasDigit = true
			}
		}
		return hasUpper && hasLower && hasDigit
	})

	return v
}

// validateRequest runs struct validation and converts failures into a ValidationError
func validateRequest(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		name := fe.Field()
		if _, seen := fields[name]; !seen {
			fields[name] = validationMessage(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		switch fe.Tag() {
		case "required":
			return "Name is required"
		default:
			return "Name must be between 2 and 100 characters"
		}
	case "email":
		switch fe.Tag() {
		case "required":
			return "Email is required"
		default:
			return "Email must be a valid email address"
		}
	case "password":
		switch fe.Tag() {
		case "required":
			return "Password is required"
		case "min":
			return "Password must be at least " + fe.Param() + " characters"
		case "max":
			return "Password must be at most " + fe.Param() + " characters"
		case "password_strength":
			return "Password must contain an upper case letter, a lower case letter and a number"
		}
	case "nationalId":
		switch fe.Tag() {
		case "required":
			return "National ID is required"
		case "alphanum":
			return "National ID must contain only letters and digits"
		default:
			return "National ID must be between 5 and 20 characters"
		}
	case "phone":
		return "Phone must be in international format, for example +351912345678"
	case "role":
		return "Role is required"
	case "token":
		return "Verification token is malformed"
	case "level":
		return "Level must be one of basic, standard or enhanced"
	case "value":
		switch fe.Tag() {
		case "required":
			return "Value is required"
		default:
			return "Value must be at most " + fe.Param() + " characters"
		}
	}

	return getValidationErrorMessage(fe)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}
