package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	validationdomain "github.com/smallbiznis/partsentry/internal/validation/domain"
	"go.uber.org/zap"
)

// Writer renders reports into an output directory. File names embed a ULID
// so runs sort lexically by time.
type Writer struct {
	dir string
	log *zap.Logger
}

func NewWriter(dir string, log *zap.Logger) *Writer {
	return &Writer{dir: dir, log: log.Named("report.writer")}
}

// WriteInvoice renders one invoice result and returns the report path.
func (w *Writer) WriteInvoice(result *validationdomain.Result, format Format) (string, error) {
	return w.write(format, func(f *os.File) error {
		switch format {
		case FormatJSON:
			return writeJSON(f, result)
		case FormatCSV:
			return writeLinesCSV(f, []*validationdomain.Result{result})
		default:
			return writeInvoiceText(f, result)
		}
	})
}

// WriteBatch renders a consolidated batch report and returns its path.
func (w *Writer) WriteBatch(batch *Batch, format Format) (string, error) {
	return w.write(format, func(f *os.File) error {
		switch format {
		case FormatJSON:
			return writeJSON(f, batch)
		case FormatCSV:
			return writeLinesCSV(f, batch.Invoices)
		default:
			return writeBatchText(f, batch)
		}
	})
}

func (w *Writer) write(format Format, render func(*os.File) error) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	name := fmt.Sprintf("report-%s.%s", strings.ToLower(ulid.Make().String()), format)
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := render(f); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	w.log.Info("report written", zap.String("path", path))
	return path, nil
}

func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLinesCSV(f *os.File, results []*validationdomain.Result) error {
	cw := csv.NewWriter(f)
	defer cw.Flush()

	header := []string{
		"invoice_number", "line_number", "part_number", "description", "item_type",
		"quantity", "extracted_price", "authorized_price", "price_difference",
		"status", "errors",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		for _, line := range result.Lines {
			record := []string{
				result.InvoiceNumber,
				fmt.Sprintf("%d", line.LineNumber),
				line.PartNumber,
				line.Description,
				line.ItemType,
				line.Quantity.String(),
				decimalString(line.ExtractedPrice),
				decimalString(line.AuthorizedPrice),
				decimalString(line.PriceDiff),
				string(line.Status),
				strings.Join(line.Errors, "; "),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeInvoiceText(f *os.File, result *validationdomain.Result) error {
	fmt.Fprintf(f, "Invoice %s", result.InvoiceNumber)
	if result.InvoiceDate != "" {
		fmt.Fprintf(f, " (%s)", result.InvoiceDate)
	}
	fmt.Fprintf(f, "\nFile: %s\n", result.File)
	fmt.Fprintf(f, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	writeSummaryText(f, result.Summary)
	fmt.Fprintln(f)

	for _, line := range result.Lines {
		if line.Status == validationdomain.StatusPassed {
			continue
		}
		fmt.Fprintf(f, "[%s] line %d  %s  %s\n", line.Status, line.LineNumber, line.PartNumber, line.Description)
		for _, msg := range line.Errors {
			fmt.Fprintf(f, "        %s\n", msg)
		}
	}
	return nil
}

func writeBatchText(f *os.File, batch *Batch) error {
	fmt.Fprintf(f, "Batch report, %d invoices\n", len(batch.Invoices))
	fmt.Fprintf(f, "Generated: %s\n\n", batch.GeneratedAt.UTC().Format(time.RFC3339))

	writeSummaryText(f, batch.Combined)
	fmt.Fprintln(f)

	for _, result := range batch.Invoices {
		if result == nil {
			continue
		}
		fmt.Fprintf(f, "Invoice %s: %d passed / %d failed / %d unknown\n",
			result.InvoiceNumber,
			result.Summary.PassedParts,
			result.Summary.FailedParts,
			result.Summary.UnknownParts,
		)
	}
	return nil
}

func writeSummaryText(f *os.File, summary validationdomain.Summary) {
	fmt.Fprintf(f, "Total parts:   %d\n", summary.TotalParts)
	fmt.Fprintf(f, "Passed:        %d\n", summary.PassedParts)
	fmt.Fprintf(f, "Failed:        %d\n", summary.FailedParts)
	fmt.Fprintf(f, "Unknown:       %d\n", summary.UnknownParts)
}

func decimalString(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	return value.String()
}
