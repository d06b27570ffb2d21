package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ispdesk/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements Repository for a gorm model. Entity repositories embed it
// and add their own scoped queries.
type Store[T any] struct{}

func (Store[T]) Insert(ctx context.Context, db *gorm.DB, resource *T) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(resource).Error
}

// Save writes every column of resource. Associations are never cascaded.
func (Store[T]) Save(ctx context.Context, db *gorm.DB, resource *T) error {
	return db.WithContext(ctx).Omit(clause.Associations).Save(resource).Error
}

// FindByID returns (nil, nil) when no row matches.
func (Store[T]) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, preloads ...string) (*T, error) {
	var result T
	stmt := db.WithContext(ctx)
	for _, preload := range preloads {
		stmt = stmt.Preload(preload)
	}
	err := stmt.Where("id = ?", id).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (Store[T]) Find(ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	stmt := db.WithContext(ctx).Model(new(T))
	if scope != nil {
		stmt = scope(stmt)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	if err := stmt.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (Store[T]) DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (Store[T]) Count(ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	var count int64
	stmt := db.WithContext(ctx).Model(new(T))
	if scope != nil {
		stmt = scope(stmt)
	}
	err := stmt.Count(&count).Error
	return count, err
}
