package domain

import (
	"context"
	"errors"
	"time"

	customerdomain "github.com/smallbiznis/ispdesk/internal/customer/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int
	Status     string
	CustomerID string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type CreateInvoiceRequest struct {
	CustomerID    string  `json:"customer_id" validate:"required"`
	Amount        string  `json:"amount" validate:"required,amount"`
	InvoiceDate   string  `json:"invoice_date" validate:"required,date"`
	DueDate       string  `json:"due_date" validate:"required,date"`
	BillingPeriod string  `json:"billing_period" validate:"required,max=255"`
	Description   *string `json:"description"`
}

// UpdateInvoiceRequest adds the manual status override to the create fields.
type UpdateInvoiceRequest struct {
	CreateInvoiceRequest
	Status string `json:"status" validate:"required,oneof=unpaid paid due overdue"`
}

type FormOptions struct {
	Customers []customerdomain.Customer `json:"customers"`
}

type Service interface {
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	Update(ctx context.Context, id string, req UpdateInvoiceRequest) (Invoice, error)
	Delete(ctx context.Context, id string) error
	// RefreshStatuses recomputes stored due and overdue statuses as of now.
	RefreshStatuses(ctx context.Context, now time.Time) (RefreshResult, error)
	ListOpen(context.Context) ([]Invoice, error)
	FormOptions(context.Context) (FormOptions, error)
}

const NumberPrefix = "INV-"

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
	// ErrHasPayments is returned when deleting an invoice that has payments.
	ErrHasPayments = errors.New("invoice_has_payments")
)
