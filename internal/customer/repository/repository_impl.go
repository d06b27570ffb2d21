package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/customer/domain"
	pkgdb "github.com/smallbiznis/ispdesk/pkg/db"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.Customer]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		stmt = stmt.Preload("ServicePackage")
		if filter.Status != "" {
			stmt = stmt.Where("status = ?", filter.Status)
		}
		if filter.ServicePackageID != nil {
			stmt = stmt.Where("service_package_id = ?", *filter.ServicePackageID)
		}
		if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
			like := pkgdb.ContainsPattern(search)
			stmt = stmt.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", like, like)
		}
		return stmt.Order("created_at desc, id desc")
	}, option.ApplyPagination(page))
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Customer, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		return stmt.Where("status = ?", domain.StatusActive).Order("name asc, id asc")
	})
}

func (r *repo) EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID snowflake.ID) (bool, error) {
	var count int64
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("LOWER(email) = ?", strings.ToLower(email))
	if exceptID != 0 {
		stmt = stmt.Where("id <> ?", exceptID)
	}
	if err := stmt.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountDependents(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, int64, error) {
	var invoices, payments int64
	if err := db.WithContext(ctx).Table("invoices").Where("customer_id = ?", id).Count(&invoices).Error; err != nil {
		return 0, 0, err
	}
	if err := db.WithContext(ctx).Table("payments").Where("customer_id = ?", id).Count(&payments).Error; err != nil {
		return 0, 0, err
	}
	return invoices, payments, nil
}
