package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	validationdomain "github.com/smallbiznis/partsentry/internal/validation/domain"
)

func sampleResult() *validationdomain.Result {
	extracted := decimal.RequireFromString("15.50")
	authorized := decimal.RequireFromString("12.00")
	diff := extracted.Sub(authorized)
	return &validationdomain.Result{
		InvoiceNumber: "INV-100",
		InvoiceDate:   "2026-08-01",
		File:          "INV-100.pdf",
		Lines: []validationdomain.ValidatedLine{
			{
				LineNumber:      1,
				PartNumber:      "A1",
				Description:     "Widget Assembly",
				ItemType:        "parts",
				Quantity:        decimal.NewFromInt(2),
				ExtractedPrice:  &extracted,
				AuthorizedPrice: &extracted,
				Status:          validationdomain.StatusPassed,
			},
			{
				LineNumber:      2,
				PartNumber:      "B2",
				Description:     "Gadget Bracket",
				ItemType:        "parts",
				Quantity:        decimal.NewFromInt(1),
				ExtractedPrice:  &extracted,
				AuthorizedPrice: &authorized,
				PriceDiff:       &diff,
				Status:          validationdomain.StatusFailed,
				Errors:          []string{"price mismatch: extracted 15.5, authorized 12"},
			},
		},
		Summary: validationdomain.Summary{TotalParts: 2, PassedParts: 1, FailedParts: 1},
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, ParseFormat("csv"))
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("txt"))
	assert.Equal(t, FormatText, ParseFormat("anything-else"))
}

func TestWriteInvoice_JSON(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop())

	path, err := w.WriteInvoice(sampleResult(), FormatJSON)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "report-"))
	assert.True(t, strings.HasSuffix(path, ".json"))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	var decoded validationdomain.Result
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "INV-100", decoded.InvoiceNumber)
	assert.Len(t, decoded.Lines, 2)
	assert.Equal(t, validationdomain.StatusFailed, decoded.Lines[1].Status)
}

func TestWriteInvoice_CSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop())

	path, err := w.WriteInvoice(sampleResult(), FormatCSV)
	assert.NoError(t, err)

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "invoice_number", rows[0][0])
	assert.Equal(t, "A1", rows[1][2])
	assert.Equal(t, "FAILED", rows[2][9])
}

func TestWriteInvoice_TextListsOnlyProblems(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop())

	path, err := w.WriteInvoice(sampleResult(), FormatText)
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "Invoice INV-100")
	assert.Contains(t, text, "B2")
	assert.Contains(t, text, "price mismatch")
	// Passed lines are summarized, not itemized.
	assert.NotContains(t, text, "Widget Assembly")
}

func TestWriteBatch_Text(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zap.NewNop())

	batch := &Batch{
		GeneratedAt: time.Now().UTC(),
		Combined:    validationdomain.Summary{TotalParts: 2, PassedParts: 1, FailedParts: 1},
		Invoices:    []*validationdomain.Result{sampleResult()},
	}
	path, err := w.WriteBatch(batch, FormatText)
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "Batch report, 1 invoices")
	assert.Contains(t, string(data), "Invoice INV-100: 1 passed / 1 failed / 0 unknown")
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	w := NewWriter(dir, zap.NewNop())

	path, err := w.WriteInvoice(sampleResult(), FormatText)
	assert.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
