package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/pagination"
	"github.com/smallbiznis/ispdesk/pkg/repository"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status           Status
	ServicePackageID *snowflake.ID
	Search           string
}

type Repository interface {
	repository.Repository[Customer]
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Customer, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*Customer, error)
	// EmailTaken reports whether another customer already uses email.
	EmailTaken(ctx context.Context, db *gorm.DB, email string, exceptID snowflake.ID) (bool, error)
	CountDependents(ctx context.Context, db *gorm.DB, id snowflake.ID) (invoices int64, payments int64, err error)
}
