package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partsentry/internal/parts/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, part *domain.Part) error {
	return db.WithContext(ctx).Create(part).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, partKey string) (*domain.Part, error) {
	var p domain.Part
	err := db.WithContext(ctx).
		Where("part_key = ?", partKey).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Part, error) {
	var p domain.Part
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, partNumber string) (*domain.Part, error) {
	var p domain.Part
	err := db.WithContext(ctx).
		Where("part_number = ? AND is_active = ?", strings.TrimSpace(partNumber), true).
		Order("updated_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, part *domain.Part) error {
	return db.WithContext(ctx).Exec(
		`UPDATE parts
		 SET authorized_price = ?, category = ?, notes = ?, is_active = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		part.AuthorizedPrice,
		part.Category,
		part.Notes,
		part.Active,
		part.Metadata,
		part.UpdatedAt,
		part.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM parts WHERE id = ?`, id).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Part, error) {
	var items []domain.Part
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.Part{}), filter).
		Order("part_number ASC, created_at ASC")

	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, filter domain.ListFilter) (int64, error) {
	var count int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Part{}), filter).Count(&count).Error
	return count, err
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if filter.Active != nil {
		stmt = stmt.Where("is_active = ?", *filter.Active)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if filter.Source != "" {
		stmt = stmt.Where("source = ?", filter.Source)
	}
	return stmt
}
