// Package domain defines the validation engine contract and its output
// shapes. ValidatedLine is ephemeral: consumed by report generation and
// never persisted.
package domain

import (
	"context"

	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	"github.com/smallbiznis/partsentry/internal/extract"
	"github.com/shopspring/decimal"
)

// Status classifies one validated invoice line.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusUnknown Status = "UNKNOWN"
)

// ValidatedLine is the per-line validation outcome.
type ValidatedLine struct {
	LineNumber      int              `json:"line_number"`
	PartNumber      string           `json:"part_number"`
	Description     string           `json:"description"`
	ItemType        string           `json:"item_type,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	ExtractedPrice  *decimal.Decimal `json:"extracted_price,omitempty"`
	AuthorizedPrice *decimal.Decimal `json:"authorized_price,omitempty"`
	PriceDiff       *decimal.Decimal `json:"price_difference,omitempty"`
	LineTotal       *decimal.Decimal `json:"line_total,omitempty"`
	RawText         string           `json:"raw_text,omitempty"`
	Status          Status           `json:"validation_status"`
	Errors          []string         `json:"errors,omitempty"`
}

// Summary counts terminal line outcomes for one invoice.
type Summary struct {
	TotalParts   int `json:"total_parts"`
	PassedParts  int `json:"passed_parts"`
	FailedParts  int `json:"failed_parts"`
	UnknownParts int `json:"unknown_parts"`
}

// Result is the sole handoff to report generation.
type Result struct {
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	File          string          `json:"file"`
	SessionID     string          `json:"session_id,omitempty"`
	Lines         []ValidatedLine `json:"lines"`
	Summary       Summary         `json:"summary"`
}

// RunConfig is the per-run validation configuration, loaded once so a run
// is a pure function of line, catalog state and these values.
type RunConfig struct {
	Mode      string
	Tolerance decimal.Decimal
	Threshold decimal.Decimal
}

// Engine classifies extracted invoice lines against the parts catalog.
type Engine interface {
	// RunConfig resolves the per-run settings (mode, tolerance, threshold).
	RunConfig(ctx context.Context) (RunConfig, error)
	// ValidateInvoice validates every line in extraction order.
	ValidateInvoice(ctx context.Context, cfg RunConfig, invoice *extract.Invoice, session discoverydomain.Session) *Result
	// ValidateLine classifies a single line. It never returns an error:
	// unexpected failures downgrade to a FAILED classification so one bad
	// line cannot abort the rest of the invoice.
	ValidateLine(ctx context.Context, cfg RunConfig, invoice *extract.Invoice, line extract.LineItem, session discoverydomain.Session) ValidatedLine
}
