package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/invoice/domain"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const sequenceName = "invoice"

type invoiceSequence struct {
	Name      string `gorm:"primaryKey"`
	LastValue int64  `gorm:"not null"`
}

func (invoiceSequence) TableName() string { return "invoice_sequences" }

type repo struct {
	repository.Store[domain.Invoice]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		stmt = stmt.Preload("Customer")
		if filter.Status != "" {
			stmt = stmt.Where("status = ?", filter.Status)
		}
		if filter.CustomerID != nil {
			stmt = stmt.Where("customer_id = ?", *filter.CustomerID)
		}
		return stmt.Order("created_at desc, id desc")
	}, option.ApplyPagination(page))
}

func (r *repo) ListOpen(ctx context.Context, db *gorm.DB) ([]*domain.Invoice, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		return stmt.Preload("Customer").
			Where("status <> ?", domain.StatusPaid).
			Order("created_at desc, id desc")
	})
}

func (r *repo) CountPayments(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.InvoicePayment{}).
		Where("invoice_id = ?", id).
		Count(&count).Error
	return count, err
}

// NextNumber must run inside the transaction that inserts the invoice so a
// rollback also releases the counter value.
func (r *repo) NextNumber(ctx context.Context, db *gorm.DB) (int64, error) {
	stmt := db.WithContext(ctx)

	res := stmt.Exec(`UPDATE invoice_sequences SET last_value = last_value + 1 WHERE name = ?`, sequenceName)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		seed := invoiceSequence{Name: sequenceName, LastValue: 0}
		if err := stmt.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return 0, err
		}
		if err := stmt.Exec(`UPDATE invoice_sequences SET last_value = last_value + 1 WHERE name = ?`, sequenceName).Error; err != nil {
			return 0, err
		}
	}

	var seq invoiceSequence
	if err := stmt.Where("name = ?", sequenceName).Take(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidDate datatypes.Date, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.StatusPaid,
			"paid_date":  paidDate,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) MarkOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("status IN ?", []domain.Status{domain.StatusUnpaid, domain.StatusDue}).
		Where("due_date < ?", now).
		Updates(map[string]any{
			"status":     domain.StatusOverdue,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (r *repo) MarkDue(ctx context.Context, db *gorm.DB, now, horizon time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("status = ?", domain.StatusUnpaid).
		Where("due_date >= ? AND due_date <= ?", now, horizon).
		Updates(map[string]any{
			"status":     domain.StatusDue,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
