package domain

import (
	"context"
	"errors"

	invoicedomain "github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
)

type ListPaymentRequest struct {
	PageToken     string
	PageSize      int
	InvoiceID     string
	CustomerID    string
	PaymentMethod string
}

type ListPaymentResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

// UpsertPaymentRequest carries no customer_id; it is always copied from the invoice.
type UpsertPaymentRequest struct {
	InvoiceID       string  `json:"invoice_id" validate:"required"`
	Amount          string  `json:"amount" validate:"required,amount"`
	PaymentDate     string  `json:"payment_date" validate:"required,date"`
	PaymentMethod   string  `json:"payment_method" validate:"required,oneof=cash bank_transfer credit_card debit_card check"`
	ReferenceNumber *string `json:"reference_number" validate:"omitempty,max=255"`
	Notes           *string `json:"notes"`
}

type FormOptions struct {
	Invoices []invoicedomain.Invoice `json:"invoices"`
}

type Service interface {
	List(context.Context, ListPaymentRequest) (ListPaymentResponse, error)
	Create(context.Context, UpsertPaymentRequest) (Payment, error)
	GetByID(ctx context.Context, id string) (Payment, error)
	Update(ctx context.Context, id string, req UpsertPaymentRequest) (Payment, error)
	Delete(ctx context.Context, id string) error
	FormOptions(context.Context) (FormOptions, error)
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
)
