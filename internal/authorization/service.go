package authorization

import (
	"context"
	"errors"
)

const (
	ObjectDashboard      = "dashboard"
	ObjectCustomer       = "customer"
	ObjectServicePackage = "service_package"
	ObjectInvoice        = "invoice"
	ObjectPayment        = "payment"
)

const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionRefresh = "refresh"
)

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleViewer = "viewer"
)

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

type Service interface {
	// Authorize succeeds when any of roles grants action on object.
	Authorize(ctx context.Context, actor string, roles []string, object string, action string) error
}
