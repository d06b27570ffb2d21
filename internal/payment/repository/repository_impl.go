package repository

import (
	"context"

	"github.com/smallbiznis/ispdesk/internal/payment/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Payment]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Payment, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		stmt = stmt.Preload("Customer").Preload("Invoice")
		if filter.InvoiceID != nil {
			stmt = stmt.Where("invoice_id = ?", *filter.InvoiceID)
		}
		if filter.CustomerID != nil {
			stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.PaymentMethod != "" {
			stmt = stmt.Where("payment_method = ?", filter.PaymentMethod)
		}
		return stmt.Order("created_at desc, id desc")
	}, option.ApplyPagination(page))
}
