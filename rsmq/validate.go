package rsmq

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	qnamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,160}$`)
	validate     = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("qname", func(fl validator.FieldLevel) bool {
		return qnamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("maxsize", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n == UnlimitedMaxSize || (n >= 1024 && n <= DefaultMaxSize)
	})
	return v
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

func validateQName(qname string) error {
	if err := validate.Var(qname, "qname"); err != nil {
		return validationError("qname", err)
	}
	return nil
}

func validateID(id string) error {
	if err := validate.Var(id, "len=32,alphanum"); err != nil {
		return validationError("id", err)
	}
	return nil
}

func validationError(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidArgument, field, err)
}
