// Package domain contains persistence models for the authorized parts catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Source records how a part entered the catalog.
type Source string

const (
	SourceManual     Source = "manual"
	SourceDiscovered Source = "discovered"
	SourceImported   Source = "imported"
)

// Part is an authoritative catalog entry. Identity is the normalized
// composite key of item type, description and part number, never the
// part number alone.
type Part struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	PartKey          string            `gorm:"column:part_key;type:text;not null;uniqueIndex:ux_parts_part_key"`
	PartNumber       string            `gorm:"type:text;not null;index:ix_parts_part_number"`
	Description      string            `gorm:"type:text;not null"`
	ItemType         string            `gorm:"type:text;not null;default:''"`
	AuthorizedPrice  decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	Category         *string           `gorm:"type:text;index:ix_parts_category"`
	Source           Source            `gorm:"type:text;not null;default:'manual'"`
	FirstSeenInvoice *string           `gorm:"type:text"`
	Active           bool              `gorm:"column:is_active;not null;default:true;index:ix_parts_is_active"`
	Notes            *string           `gorm:"type:text"`
	Metadata         datatypes.JSONMap `gorm:"type:json"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (Part) TableName() string { return "parts" }
