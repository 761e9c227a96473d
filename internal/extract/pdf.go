package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PDFExtractor extracts line items from text-based PDF invoices. Scanned
// images are out of scope; a PDF with no extractable text yields an error.
type PDFExtractor struct {
	log    *zap.Logger
	parser *lineParser
}

func NewPDFExtractor(log *zap.Logger) *PDFExtractor {
	return &PDFExtractor{
		log:    log.Named("extract.pdf"),
		parser: newLineParser(),
	}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (*Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read invoice file: %w", err)
	}

	text, err := extractText(data)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text from %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}

	invoice := e.parser.parse(text)
	invoice.File = path
	if invoice.Number == "" {
		// Fall back to the file name so results stay attributable.
		invoice.Number = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	e.log.Debug("invoice extracted",
		zap.String("file", filepath.Base(path)),
		zap.String("invoice_number", invoice.Number),
		zap.Int("lines", len(invoice.Lines)),
	)
	return invoice, nil
}

func extractText(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}

	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

var _ Extractor = (*PDFExtractor)(nil)
