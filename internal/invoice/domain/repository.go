package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status     Status
	CustomerID *snowflake.ID
}

type Repository interface {
	repository.Repository[Invoice]
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Invoice, error)
	// ListOpen returns invoices not yet paid, customer loaded.
	ListOpen(ctx context.Context, db *gorm.DB) ([]*Invoice, error)
	CountPayments(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	// NextNumber atomically increments the invoice counter and returns the new value.
	NextNumber(ctx context.Context, db *gorm.DB) (int64, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidDate datatypes.Date, at time.Time) error
	MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	MarkDue(ctx context.Context, db *gorm.DB, now, horizon time.Time) (int64, error)
}
