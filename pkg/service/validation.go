package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// nameRules apply to every item name sent to the service.
const nameRules = `required,max=255,excludesall=/\,ne=.,ne=..`

// ValidationError is returned before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type createInput struct {
	ParentID string `json:"parent" validate:"required_unless=Level 0"`
	Name     string `json:"name" validate:"required,max=255,excludesall=/\\,ne=.,ne=.."`
	Level    int    `json:"level" validate:"gte=0,lte=4"`
}

type renameInput struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required,max=255,excludesall=/\\,ne=.,ne=.."`
}

type moveInput struct {
	ID            string `json:"id" validate:"required"`
	DestinationID string `json:"destination" validate:"required,nefield=ID"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Service) check(input any) error {
	return toValidationError(s.validate.Struct(input), "")
}

func (s *Service) checkName(field, name string) error {
	return toValidationError(s.validate.Var(name, nameRules), field)
}

// toValidationError converts the first field error into a ValidationError.
func toValidationError(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	e := verrs[0]
	if field == "" {
		field = e.Field()
	}
	return &ValidationError{Field: field, Message: validationMessage(e)}
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_unless":
		return "This field is required"
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "excludesall":
		return "Must not contain a path separator"
	case "ne":
		return "Must not be " + e.Param()
	case "nefield":
		return "Must differ from the item itself"
	case "gte", "lte":
		return "Documents are added by upload, not created"
	default:
		return "Invalid value"
	}
}
