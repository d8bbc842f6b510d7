package session

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/takeout/client/internal/domain/shared"
)

// accountPattern is what the backend accepts for usernames and passwords
var accountPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// NewValidator returns a validator that knows the account tag and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		return accountPattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError converts validator output into a domain error whose
// message names every failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Field()+": "+validationMessage(e))
	}
	return shared.NewDomainError("VALIDATION_FAILED", strings.Join(msgs, "; "))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "account":
		return "may only contain letters, digits and underscores"
	default:
		return "is invalid"
	}
}
