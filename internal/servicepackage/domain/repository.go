package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type ListFilter struct {
	IsActive *bool
	Name     string
}

type Repository interface {
	repository.Repository[ServicePackage]
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*ServicePackage, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*ServicePackage, error)
	CountCustomers(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
}
