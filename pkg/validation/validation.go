// Package validation runs declarative field rules and collects per-field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/ispdesk/pkg/money"
)

const DateLayout = "2006-01-02"

// FieldError describes one failed rule on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is the set of field failures for one operation.
type Errors struct {
	Errors []FieldError `json:"errors"`
}

// Messages overrides default messages, keyed by "field.code".
type Messages map[string]string

var ErrInvalidDate = errors.New("invalid_date")

func (e *Errors) Error() string {
	if e == nil || len(e.Errors) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Add records a failure. Only the first failure per field is kept.
func (e *Errors) Add(field, code, message string) {
	if e.Has(field) {
		return
	}
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Message: message})
}

func (e *Errors) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) Empty() bool {
	return e == nil || len(e.Errors) == 0
}

// Err returns nil when no failures were recorded.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// As extracts *Errors from an error chain.
func As(err error) (*Errors, bool) {
	var vErr *Errors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr, true
	}
	return nil, false
}

// New builds an Errors with a single failure.
func New(field, code, message string) *Errors {
	errs := &Errors{}
	errs.Add(field, code, message)
	return errs
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("amount", validateAmount)
		_ = v.RegisterValidation("date", validateDate)
		validate = v
	})
	return validate
}

// Struct checks the validate tags on v and returns the collected failures.
// The returned value is never nil so callers can keep adding to it.
func Struct(v any, messages Messages) *Errors {
	errs := &Errors{}
	err := engine().Struct(v)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("request", "invalid_request", "invalid request")
		return errs
	}

	for _, fe := range fieldErrs {
		field := fe.Field()
		code := codeFor(fe.Tag())
		message := messages[field+"."+code]
		if message == "" {
			message = defaultMessage(field, fe)
		}
		errs.Add(field, code, message)
	}
	return errs
}

// Message resolves an override or falls back to def.
func (m Messages) Message(field, code, def string) string {
	if msg := m[field+"."+code]; msg != "" {
		return msg
	}
	return def
}

// ParseDate parses YYYY-MM-DD (or RFC3339) into a UTC calendar date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, mo, d := t.UTC().Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrInvalidDate
}

func validateAmount(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	amount, err := money.Parse(raw)
	if err != nil {
		return false
	}
	return !amount.IsNegative() && amount <= money.MaxAmount
}

func validateDate(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	_, err := ParseDate(raw)
	return err == nil
}

func codeFor(tag string) string {
	switch tag {
	case "oneof":
		return "in"
	case "amount":
		return "numeric"
	default:
		return tag
	}
}

func defaultMessage(field string, fe validator.FieldError) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "amount":
		return fmt.Sprintf("The %s must be a number between 0 and 99999999.99. Extra decimal places are rounded to cents.", label)
	case "date":
		return fmt.Sprintf("The %s is not a valid date.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
