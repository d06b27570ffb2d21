package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/internal/servicepackage/domain"
	pkgdb "github.com/smallbiznis/ispdesk/pkg/db"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	repository.Store[domain.ServicePackage]
}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.ServicePackage, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		if filter.IsActive != nil {
			stmt = stmt.Where("is_active = ?", *filter.IsActive)
		}
		if name := strings.TrimSpace(filter.Name); name != "" {
			stmt = stmt.Where("LOWER(name) LIKE ? ESCAPE '!'", pkgdb.ContainsPattern(strings.ToLower(name)))
		}
		return stmt.Order("created_at desc, id desc")
	}, option.ApplyPagination(page))
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.ServicePackage, error) {
	return r.Find(ctx, db, func(stmt *gorm.DB) *gorm.DB {
		return stmt.Where("is_active = ?", true).Order("name asc, id asc")
	})
}

func (r *repo) CountCustomers(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.PackageCustomer{}).
		Where("service_package_id = ?", id).
		Count(&count).Error
	return count, err
}
