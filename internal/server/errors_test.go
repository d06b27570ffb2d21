package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/smallbiznis/ispdesk/internal/auth"
	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/pkg/validation"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"validation", validation.New("email", "email", "invalid email"), http.StatusBadRequest, "validation_error", "validation error"},
		{"missing token", auth.ErrMissingToken, http.StatusUnauthorized, "unauthorized", "unauthorized"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden", "forbidden"},
		{"customer conflict", fmt.Errorf("delete: %w", customerdomain.ErrHasBillingRecords), http.StatusConflict, "conflict", "Cannot delete customer with existing invoices or payments."},
		{"invoice missing", invoicedomain.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
		{"malformed id", invoicedomain.ErrInvalidID, http.StatusNotFound, "not_found", "not found"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error", "internal server error"},
		{"nil", nil, http.StatusInternalServerError, "internal_error", "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
			assert.Equal(t, tc.message, payload.Message)
		})
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(validation.New("amount", "required", "amount is required"))
	assert.Equal(t, "validation_error", kind)
	assert.Equal(t, "required", code)

	kind, code = classifyErrorForLog(errors.New("db down"))
	assert.Equal(t, "internal_error", kind)
	assert.Equal(t, "internal_error", code)
}
