// Package repository provides the generic gorm plumbing shared by the entity
// repositories. Every method takes the handle to run on so callers can pass a
// transaction.
package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	Insert(ctx context.Context, db *gorm.DB, resource *T) error
	Save(ctx context.Context, db *gorm.DB, resource *T) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, preloads ...string) (*T, error)
	Find(ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB, opts ...option.QueryOption) ([]*T, error)
	DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	Count(ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB) (int64, error)
}
