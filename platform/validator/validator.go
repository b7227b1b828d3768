// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	procedureCodePattern = regexp.MustCompile(`^D\d{4}$`)
	npiPattern           = regexp.MustCompile(`^\d{10}$`)
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with the claim rules registered:
// procedure_code (D followed by four digits), npi (ten digits), and
// money_gt0/money_gte0 for decimal.Decimal amounts. Decimals reach rules as
// their exact string form, never as float64.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("procedure_code", func(fl validator.FieldLevel) bool {
		return procedureCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("npi", func(fl validator.FieldLevel) bool {
		return npiPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("money_gt0", func(fl validator.FieldLevel) bool {
		d, ok := money(fl)
		return ok && d.GreaterThan(decimal.Zero)
	})
	_ = v.RegisterValidation("money_gte0", func(fl validator.FieldLevel) bool {
		d, ok := money(fl)
		return ok && !d.IsNegative()
	})

	return &Validator{v: v}
}

func money(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors flattens validation errors into field -> message pairs for API responses.
// It returns nil when err is not a validation error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe)] = describe(fe)
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "money_gt0":
		return "must be greater than 0"
	case "money_gte0":
		return "must be greater than or equal to 0"
	case "procedure_code":
		return "must match D followed by four digits"
	case "npi":
		return "must be a 10-digit provider identifier"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
