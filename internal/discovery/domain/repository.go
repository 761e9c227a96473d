package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// QueryFilter narrows log queries. Zero values mean "any".
type QueryFilter struct {
	SessionID     string
	PartNumber    string
	InvoiceNumber string
	Action        Action
	Since         *time.Time
	Limit         int
}

type Repository interface {
	Append(ctx context.Context, db *gorm.DB, entry *LogEntry) error
	Query(ctx context.Context, db *gorm.DB, filter QueryFilter) ([]LogEntry, error)
	PurgeOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}
