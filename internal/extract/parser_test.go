package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const sampleInvoiceText = `ACME SERVICE CO
Invoice #: INV-2045
Date: 2026-08-01

Parts:
A1          Widget Assembly           2    $15.50    $31.00
B-2/X       Gadget Bracket            1    8.75      8.75

Labor:
LB1         Shop labor hourly         3    $95.00    $285.00

Freight:
garbage row without columns
FR9         Ground shipping           1    $1,250.00   $1,250.00

Total: $1,574.75
`

func TestParse_FullInvoice(t *testing.T) {
	invoice := newLineParser().parse(sampleInvoiceText)

	assert.Equal(t, "INV-2045", invoice.Number)
	assert.Equal(t, "2026-08-01", invoice.Date)
	assert.Len(t, invoice.Lines, 4)

	first := invoice.Lines[0]
	assert.Equal(t, 1, first.LineNumber)
	assert.Equal(t, "A1", first.PartNumber)
	assert.Equal(t, "Widget Assembly", first.Description)
	assert.Equal(t, "parts", first.ItemType)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, first.UnitPrice.Equal(decimal.RequireFromString("15.50")))
	assert.True(t, first.LineTotal.Equal(decimal.RequireFromString("31.00")))

	// Section headers switch the item type for following rows.
	assert.Equal(t, "labor", invoice.Lines[2].ItemType)
	assert.Equal(t, "freight", invoice.Lines[3].ItemType)

	// Thousands separators in money columns are handled.
	assert.True(t, invoice.Lines[3].UnitPrice.Equal(decimal.RequireFromString("1250.00")))
}

func TestParse_DollarSignsOptional(t *testing.T) {
	invoice := newLineParser().parse(sampleInvoiceText)
	second := invoice.Lines[1]
	assert.Equal(t, "B-2/X", second.PartNumber)
	assert.True(t, second.UnitPrice.Equal(decimal.RequireFromString("8.75")))
}

func TestParse_DropsMalformedRows(t *testing.T) {
	text := `Invoice # INV-1
Parts:
A1          Widget Assembly           0    $15.50    $0.00
A2 short
A3          Missing totals            2
`
	invoice := newLineParser().parse(text)
	// Zero quantity and missing columns both fail the shape check.
	assert.Empty(t, invoice.Lines)
}

func TestParse_NoInvoiceNumber(t *testing.T) {
	invoice := newLineParser().parse("just some text\nno structure at all\n")
	assert.Empty(t, invoice.Number)
	assert.Empty(t, invoice.Lines)
}
