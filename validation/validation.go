// Package validation holds the validator shared by form and config checks.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator. validator.Validate caches struct metadata,
// so one instance serves every caller.
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})
	return instance
}

// Struct validates s against its `validate` tags
func Struct(s interface{}) error {
	return Validator().Struct(s)
}

// FieldErrors unpacks a validation failure. ok is false when err is nil or is not a
// failed field check, for example a nil or non-struct argument.
func FieldErrors(err error) (validator.ValidationErrors, bool) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return nil, false
	}
	return fieldErrs, true
}

// Describe turns field errors into one readable line such as
// "field 'Config.Quiz.AdvanceDelay' failed 'gte=0' (value: '-1s')"
func Describe(err error) string {
	fieldErrs, ok := FieldErrors(err)
	if !ok {
		if err == nil {
			return ""
		}
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		messages = append(messages, fmt.Sprintf("field '%s' failed '%s' (value: '%v')", fe.Namespace(), tag, fe.Value()))
	}
	return strings.Join(messages, "; ")
}
