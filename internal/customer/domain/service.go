package domain

import (
	"context"
	"errors"

	spdomain "github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken        string
	PageSize         int
	Status           string
	ServicePackageID string
	Search           string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type UpsertCustomerRequest struct {
	Name             string  `json:"name" validate:"required,max=255"`
	Email            string  `json:"email" validate:"required,email,max=255"`
	Phone            *string `json:"phone" validate:"omitempty,max=20"`
	Address          string  `json:"address" validate:"required"`
	Status           string  `json:"status" validate:"required,oneof=active inactive suspended"`
	ConnectionDate   string  `json:"connection_date" validate:"required,date"`
	ServicePackageID string  `json:"service_package_id" validate:"required"`
	Notes            *string `json:"notes"`
}

// FormOptions lists what the create and edit forms offer.
type FormOptions struct {
	ServicePackages []spdomain.ServicePackage `json:"service_packages"`
}

type Service interface {
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	ListActive(context.Context) ([]Customer, error)
	Create(context.Context, UpsertCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	Update(ctx context.Context, id string, req UpsertCustomerRequest) (Customer, error)
	Delete(ctx context.Context, id string) error
	FormOptions(context.Context) (FormOptions, error)
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
	// ErrHasBillingRecords is returned when invoices or payments reference the customer.
	ErrHasBillingRecords = errors.New("customer_has_billing_records")
)
