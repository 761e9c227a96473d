package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, key string) (*ConfigEntry, error)
	Upsert(ctx context.Context, db *gorm.DB, entry *ConfigEntry) error
	List(ctx context.Context, db *gorm.DB, category string) ([]ConfigEntry, error)
	Delete(ctx context.Context, db *gorm.DB, key string) error
}
