package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength = 256
)

func init() {
	validate = validator.New()
}

// UserRequest represents the body of POST /users. ID has no "required" tag:
// it is the engine's key and 0 is a legal key, not a missing one.
type UserRequest struct {
	ID   int32  `json:"id"`
	Name string `json:"name" validate:"required,min=1,max=256"`
}

// ValidateUserRequest validates a user creation/update request.
func ValidateUserRequest(req *UserRequest) error {
	if req == nil {
		return errors.New("user request cannot be nil")
	}

	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name: exceeds maximum length of %d characters", MaxNameLength)
	}

	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
