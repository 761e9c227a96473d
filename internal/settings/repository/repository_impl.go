package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/partsentry/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, key string) (*domain.ConfigEntry, error) {
	var entry domain.ConfigEntry
	err := db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, entry *domain.ConfigEntry) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "data_type", "category", "description", "updated_at",
		}),
	}).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, category string) ([]domain.ConfigEntry, error) {
	var entries []domain.ConfigEntry
	stmt := db.WithContext(ctx).Model(&domain.ConfigEntry{})
	if category = strings.TrimSpace(category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if err := stmt.Order("key ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Exec(`DELETE FROM config WHERE key = ?`, key).Error
}
