package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// lineParser turns extracted invoice text into line items. Rows failing
// shape checks are dropped before the validation core ever sees them.
type lineParser struct {
	invoiceNumber *regexp.Regexp
	invoiceDate   *regexp.Regexp
	sectionHeader *regexp.Regexp
	itemRow       *regexp.Regexp
}

func newLineParser() *lineParser {
	return &lineParser{
		invoiceNumber: regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|number)?\s*[:\s]\s*([A-Za-z0-9][A-Za-z0-9\-/]*)`),
		invoiceDate:   regexp.MustCompile(`(?i)(?:invoice\s+)?date\s*[:\s]\s*(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`),
		sectionHeader: regexp.MustCompile(`(?i)^\s*(parts|labor|materials|freight|misc(?:ellaneous)?)\s*:?\s*$`),
		// part number, description, quantity, unit price, line total
		itemRow: regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9\-./]{0,31})\s{2,}(.+?)\s{2,}(\d+(?:\.\d+)?)\s+\$?(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s+\$?(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*$`),
	}
}

func (p *lineParser) parse(text string) *Invoice {
	invoice := &Invoice{}
	itemType := ""
	lineNo := 0

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if invoice.Number == "" {
			if m := p.invoiceNumber.FindStringSubmatch(line); m != nil {
				invoice.Number = m[1]
			}
		}
		if invoice.Date == "" {
			if m := p.invoiceDate.FindStringSubmatch(line); m != nil {
				invoice.Date = m[1]
			}
		}
		if m := p.sectionHeader.FindStringSubmatch(line); m != nil {
			itemType = strings.ToLower(m[1])
			continue
		}

		item, ok := p.parseRow(line, itemType)
		if !ok {
			continue
		}
		lineNo++
		item.LineNumber = lineNo
		invoice.Lines = append(invoice.Lines, item)
	}

	return invoice
}

func (p *lineParser) parseRow(line, itemType string) (LineItem, bool) {
	m := p.itemRow.FindStringSubmatch(line)
	if m == nil {
		return LineItem{}, false
	}

	quantity, err := decimal.NewFromString(m[3])
	if err != nil || !quantity.IsPositive() {
		return LineItem{}, false
	}
	unitPrice, err := parseMoney(m[4])
	if err != nil {
		return LineItem{}, false
	}
	lineTotal, err := parseMoney(m[5])
	if err != nil {
		return LineItem{}, false
	}

	return LineItem{
		PartNumber:  m[1],
		Description: strings.TrimSpace(m[2]),
		ItemType:    itemType,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   lineTotal,
		RawText:     line,
	}, true
}

func parseMoney(raw string) (*decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil, err
	}
	return &value, nil
}
