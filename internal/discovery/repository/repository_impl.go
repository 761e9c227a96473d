package repository

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/partsentry/internal/discovery/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Append(ctx context.Context, db *gorm.DB, entry *domain.LogEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO part_discovery_log (
			id, part_number, description, item_type, invoice_number, invoice_date,
			discovered_price, authorized_price, action, user_decision, session_id,
			notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.PartNumber,
		entry.Description,
		entry.ItemType,
		entry.InvoiceNumber,
		entry.InvoiceDate,
		entry.DiscoveredPrice,
		entry.AuthorizedPrice,
		entry.Action,
		entry.UserDecision,
		entry.SessionID,
		entry.Notes,
		entry.CreatedAt,
	).Error
}

func (r *repo) Query(ctx context.Context, db *gorm.DB, filter domain.QueryFilter) ([]domain.LogEntry, error) {
	var entries []domain.LogEntry
	stmt := db.WithContext(ctx).Model(&domain.LogEntry{})

	if sessionID := strings.TrimSpace(filter.SessionID); sessionID != "" {
		stmt = stmt.Where("session_id = ?", sessionID)
	}
	if partNumber := strings.TrimSpace(filter.PartNumber); partNumber != "" {
		stmt = stmt.Where("part_number = ?", partNumber)
	}
	if invoiceNumber := strings.TrimSpace(filter.InvoiceNumber); invoiceNumber != "" {
		stmt = stmt.Where("invoice_number = ?", invoiceNumber)
	}
	if filter.Action != "" {
		stmt = stmt.Where("action = ?", filter.Action)
	}
	if filter.Since != nil {
		stmt = stmt.Where("created_at >= ?", filter.Since.UTC())
	}

	stmt = stmt.Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) PurgeOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM part_discovery_log WHERE created_at < ?`, cutoff.UTC(),
	)
	return result.RowsAffected, result.Error
}
