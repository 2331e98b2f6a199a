// Package validation checks decoded request payloads against their
// `validate` struct tags and reports every failing field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]\d{1,14}$`)
)

const maxPasswordBytes = 72

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		// bcrypt refuses input longer than 72 bytes; max counts runes.
		_ = validate.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= maxPasswordBytes
		})
	})
	return validate
}

// Struct validates s. It returns nil or a *common.ValidationError.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return &common.ValidationError{Fields: []common.FieldError{{Message: err.Error()}}}
	}

	fields := make([]common.FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, common.FieldError{Field: fieldPath(fe), Message: message(fe.Field(), fe)})
	}
	return &common.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace,
// "RegisterInput.profile.shortBio" -> "profile.shortBio".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " should not be empty"
	case "email":
		return name + " must be an email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "url":
		return name + " must be a URL"
	case "username":
		return name + " must start with a letter and contain only letters, digits and underscores"
	case "phone":
		return "Phone must contain only digits and may start with +"
	case "bcryptlen":
		return fmt.Sprintf("%s must be at most %d bytes", name, maxPasswordBytes)
	default:
		return name + " is invalid"
	}
}
