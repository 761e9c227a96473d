package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows List results.
type ListFilter struct {
	Active   *bool
	Category string
	Source   Source
	Limit    int
	Offset   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, part *Part) error
	FindByKey(ctx context.Context, db *gorm.DB, partKey string) (*Part, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Part, error)
	FindByNumber(ctx context.Context, db *gorm.DB, partNumber string) (*Part, error)
	Update(ctx context.Context, db *gorm.DB, part *Part) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Part, error)
	Count(ctx context.Context, db *gorm.DB, filter ListFilter) (int64, error)
}
