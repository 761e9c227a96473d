// Package domain contains the discovery audit log and session state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Action is the terminal classification of a discovery log entry.
type Action string

const (
	ActionDiscovered    Action = "discovered"
	ActionAdded         Action = "added"
	ActionUpdated       Action = "updated"
	ActionSkipped       Action = "skipped"
	ActionPriceMismatch Action = "price_mismatch"
)

// LogEntry is an immutable audit record. Rows are append-only and carry no
// foreign key to parts so the trail survives part deletion.
type LogEntry struct {
	ID              snowflake.ID     `gorm:"primaryKey"`
	PartNumber      string           `gorm:"type:text;not null;index:ix_discovery_log_part_number"`
	Description     string           `gorm:"type:text;not null;default:''"`
	ItemType        string           `gorm:"type:text;not null;default:''"`
	InvoiceNumber   string           `gorm:"type:text;not null;default:'';index:ix_discovery_log_invoice_number"`
	InvoiceDate     string           `gorm:"type:text;not null;default:''"`
	DiscoveredPrice *decimal.Decimal `gorm:"type:decimal(20,4)"`
	AuthorizedPrice *decimal.Decimal `gorm:"type:decimal(20,4)"`
	Action          Action           `gorm:"type:text;not null"`
	UserDecision    string           `gorm:"type:text;not null;default:''"`
	SessionID       string           `gorm:"column:session_id;type:text;not null;index:ix_discovery_log_session_id"`
	Notes           *string          `gorm:"type:text"`
	CreatedAt       time.Time        `gorm:"not null;index:ix_discovery_log_created_at"`
}

// TableName sets the database table name.
func (LogEntry) TableName() string { return "part_discovery_log" }

// State tracks an unknown part inside one session.
type State string

const (
	StateDiscovered State = "discovered"
	StateResolving  State = "resolving"
	StateAdded      State = "added"
	StateSkipped    State = "skipped"
)

// Occurrence is one invoice line that referenced an unknown part.
type Occurrence struct {
	InvoiceNumber string
	InvoiceDate   string
	LineNumber    int
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
}

// UnknownPart aggregates every occurrence of one composite key within a
// session. Tracked once per key no matter how many lines reference it.
type UnknownPart struct {
	Key         string
	PartNumber  string
	Description string
	ItemType    string
	State       State
	Occurrences []Occurrence
}

// PriceStats returns min, average and max across occurrences carrying a
// price. ok is false when no occurrence has one.
func (u *UnknownPart) PriceStats() (min, avg, max decimal.Decimal, ok bool) {
	var sum decimal.Decimal
	count := 0
	for _, occ := range u.Occurrences {
		if occ.Price == nil {
			continue
		}
		price := *occ.Price
		if count == 0 {
			min, max = price, price
		} else {
			if price.LessThan(min) {
				min = price
			}
			if price.GreaterThan(max) {
				max = price
			}
		}
		sum = sum.Add(price)
		count++
	}
	if count == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero, false
	}
	return min, sum.Div(decimal.NewFromInt(int64(count))).Round(4), max, true
}

// UnknownLine carries the context of a single invoice line whose part is
// absent from the catalog.
type UnknownLine struct {
	PartNumber    string
	Description   string
	ItemType      string
	InvoiceNumber string
	InvoiceDate   string
	LineNumber    int
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
}

// Summary describes what one session discovered and decided.
type Summary struct {
	SessionID        string
	UniqueParts      int
	TotalOccurrences int
	Added            int
	Skipped          int
}
