package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type ListFilter struct {
	InvoiceID     *snowflake.ID
	CustomerID    *snowflake.ID
	PaymentMethod Method
}

type Repository interface {
	repository.Repository[Payment]
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Payment, error)
}
