// Package report renders validation results to files. It is the consumer
// side of the validation handoff; the core never formats output itself.
package report

import (
	"time"

	validationdomain "github.com/smallbiznis/partsentry/internal/validation/domain"
)

// Format selects a report rendering.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a user-supplied format name, defaulting to text.
func ParseFormat(raw string) Format {
	switch Format(raw) {
	case FormatCSV:
		return FormatCSV
	case FormatJSON:
		return FormatJSON
	default:
		return FormatText
	}
}

// Batch is the consolidated shape for multi-invoice runs: one combined
// summary plus the per-invoice breakdown.
type Batch struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Combined    validationdomain.Summary   `json:"combined_summary"`
	Invoices    []*validationdomain.Result `json:"invoices"`
}
