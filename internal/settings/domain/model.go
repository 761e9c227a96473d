// Package domain contains the typed key/value configuration store.
package domain

import "time"

// DataType declares how a stored value string deserializes.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeJSON    DataType = "json"
)

// ConfigEntry is a typed setting. Values are stored as text and
// round-tripped through their declared data type.
type ConfigEntry struct {
	Key         string    `gorm:"primaryKey;type:text"`
	Value       string    `gorm:"type:text;not null"`
	DataType    DataType  `gorm:"type:text;not null;default:'string'"`
	Category    string    `gorm:"type:text;not null;default:'general'"`
	Description *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (ConfigEntry) TableName() string { return "config" }

// Well-known setting keys.
const (
	KeyValidationMode   = "validation_mode"
	KeyPriceTolerance   = "price_tolerance"
	KeyPriceThreshold   = "price_threshold"
	KeyDiscoveryMode    = "discovery_mode"
	KeyDiscoveryAutoAdd = "discovery_auto_add"
	KeyBatchWorkers     = "batch_workers"
	KeyReportFormat     = "report_format"
)

// Validation modes.
const (
	ModePartsBased     = "parts_based"
	ModeThresholdBased = "threshold_based"
)

// Discovery modes.
const (
	DiscoveryInteractive = "interactive"
	DiscoveryBatch       = "batch"
)
