// Package extract produces normalized invoice line items from source
// documents. The validation core consumes its output and never touches
// raw files itself.
package extract

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is one extracted invoice row that passed basic shape checks.
type LineItem struct {
	LineNumber  int
	PartNumber  string
	Description string
	ItemType    string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
	LineTotal   *decimal.Decimal
	RawText     string
}

// Invoice is the extractor output for one file.
type Invoice struct {
	Number string
	Date   string
	File   string
	Lines  []LineItem
}

// Extractor turns one invoice file into an ordered list of line items.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Invoice, error)
}
