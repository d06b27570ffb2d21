package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/ispdesk/internal/auth"
	"github.com/smallbiznis/ispdesk/internal/authorization"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/ispdesk/internal/payment/domain"
	servicepackagedomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// errorRule maps any of its sentinel errors to one HTTP response.
type errorRule struct {
	status  int
	kind    string
	message string
	match   []error
}

var errorRules = []errorRule{
	{http.StatusUnauthorized, "unauthorized", "unauthorized", []error{
		ErrUnauthorized,
		auth.ErrMissingToken,
		auth.ErrInvalidToken,
		auth.ErrNotConfigured,
		authorization.ErrInvalidActor,
	}},
	{http.StatusForbidden, "forbidden", "forbidden", []error{
		ErrForbidden,
		authorization.ErrForbidden,
	}},
	{http.StatusConflict, "conflict", "Cannot delete service package that is assigned to customers.", []error{
		servicepackagedomain.ErrInUse,
	}},
	{http.StatusConflict, "conflict", "Cannot delete customer with existing invoices or payments.", []error{
		customerdomain.ErrHasBillingRecords,
	}},
	{http.StatusConflict, "conflict", "Cannot delete invoice with recorded payments.", []error{
		invoicedomain.ErrHasPayments,
	}},
	// Malformed ids are reported as missing records.
	{http.StatusNotFound, "not_found", "not found", []error{
		servicepackagedomain.ErrNotFound,
		servicepackagedomain.ErrInvalidID,
		customerdomain.ErrNotFound,
		customerdomain.ErrInvalidID,
		invoicedomain.ErrNotFound,
		invoicedomain.ErrInvalidID,
		paymentdomain.ErrNotFound,
		paymentdomain.ErrInvalidID,
		gorm.ErrRecordNotFound,
	}},
}

// ErrorHandlingMiddleware renders the last error attached to the context
// unless the handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		status, payload := mapError(last.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return validation.New("request", "invalid_request", "invalid request")
}

func mapError(err error) (int, errorPayload) {
	if vErr, ok := validation.As(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}
	if err != nil {
		for _, rule := range errorRules {
			for _, target := range rule.match {
				if errors.Is(err, target) {
					return rule.status, errorPayload{Type: rule.kind, Message: rule.message}
				}
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger with the mapped error type.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	switch {
	case len(payload.Errors) > 0:
		return payload.Type, payload.Errors[0].Code
	case payload.Type == "internal_error":
		return payload.Type, payload.Type
	default:
		return payload.Type, err.Error()
	}
}
