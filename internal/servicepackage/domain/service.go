package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
)

type ListServicePackageRequest struct {
	PageToken string
	PageSize  int
	IsActive  *bool
	Name      string
}

type ListServicePackageResponse struct {
	pagination.PageInfo
	ServicePackages []ServicePackage `json:"service_packages"`
}

// UpsertServicePackageRequest carries create and update input. A nil IsActive
// keeps the stored value (true for new packages); a nil Description is left
// untouched on update.
type UpsertServicePackageRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Speed       string  `json:"speed" validate:"required,max=255"`
	Price       string  `json:"price" validate:"required,amount"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type Service interface {
	List(context.Context, ListServicePackageRequest) (ListServicePackageResponse, error)
	ListActive(context.Context) ([]ServicePackage, error)
	Create(context.Context, UpsertServicePackageRequest) (ServicePackage, error)
	GetByID(ctx context.Context, id string) (ServicePackage, error)
	Update(ctx context.Context, id string, req UpsertServicePackageRequest) (ServicePackage, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidID = errors.New("invalid_id")
	ErrNotFound  = errors.New("not_found")
	// ErrInUse is returned when customers still subscribe to the package.
	ErrInUse = errors.New("service_package_in_use")
)
