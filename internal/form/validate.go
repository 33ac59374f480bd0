package form

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/shopdesk/pkg/errors"
	"github.com/angelmondragon/shopdesk/pkg/types"
)

// MissingFieldsMessage is shown when any required field is empty.
const MissingFieldsMessage = "Please fill all required fields"

const contactDigits = 10

var (
	contactPattern = regexp.MustCompile(`^\d{10}$`)

	validatorOnce sync.Once
	sharedValidate *validator.Validate
)

// Validator returns the process-wide validator with the form tags registered.
// Field names in errors are the json names of the form keys.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			switch name {
			case "-":
				return ""
			case "":
				return fld.Name
			}
			return name
		})
		mustRegister(v, "contact", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == "" || contactPattern.MatchString(value)
		})
		mustRegister(v, "date", func(fl validator.FieldLevel) bool {
			_, err := types.ParseDate(fl.Field().String())
			return err == nil
		})
		mustRegister(v, "nonneg_decimal", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil && !d.IsNegative()
		})
		sharedValidate = v
	})
	return sharedValidate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Validate checks values against their struct tags. Every failing field is
// collected into one VALIDATION_ERROR whose details list the per-field messages.
func Validate(values any) error {
	err := Validator().Struct(values)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validate form")
	}

	var combined error
	missing := false
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = true
		}
		combined = multierr.Append(combined, fmt.Errorf("%s", fieldMessage(fe)))
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, e := range multierr.Errors(combined) {
		messages = append(messages, e.Error())
	}
	top := messages[0]
	if missing {
		top = MissingFieldsMessage
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, top).WithDetails(messages)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "contact":
		return field + " must be exactly 10 digits"
	case "date":
		return field + " must be a date (YYYY-MM-DD)"
	case "nonneg_decimal":
		return field + " must be a number of 0 or more"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte", "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	}
	return field + " is invalid"
}

// SanitizeContact keeps only the digits of input, capped at ten.
func SanitizeContact(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() == contactDigits {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
