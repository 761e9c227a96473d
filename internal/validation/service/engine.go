package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	"github.com/smallbiznis/partsentry/internal/extract"
	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
	"github.com/smallbiznis/partsentry/internal/validation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// DefaultTolerance is the absolute price tolerance applied when none is
// configured.
var DefaultTolerance = decimal.RequireFromString("0.001")

// DefaultThreshold is the threshold_based cutoff applied when none is
// configured.
var DefaultThreshold = decimal.NewFromInt(1000)

type Params struct {
	fx.In

	Log      *zap.Logger
	Parts    partsdomain.Service
	Settings settingsdomain.Service
}

type Engine struct {
	log      *zap.Logger
	parts    partsdomain.Service
	settings settingsdomain.Service
}

func New(p Params) domain.Engine {
	return &Engine{
		log:      p.Log.Named("validation.engine"),
		parts:    p.Parts,
		settings: p.Settings,
	}
}

func (e *Engine) RunConfig(ctx context.Context) (domain.RunConfig, error) {
	mode, err := e.settings.StringOr(ctx, settingsdomain.KeyValidationMode, settingsdomain.ModePartsBased)
	if err != nil {
		return domain.RunConfig{}, fmt.Errorf("load validation mode: %w", err)
	}
	tolerance, err := e.settings.NumberOr(ctx, settingsdomain.KeyPriceTolerance, DefaultTolerance)
	if err != nil {
		return domain.RunConfig{}, fmt.Errorf("load price tolerance: %w", err)
	}
	threshold, err := e.settings.NumberOr(ctx, settingsdomain.KeyPriceThreshold, DefaultThreshold)
	if err != nil {
		return domain.RunConfig{}, fmt.Errorf("load price threshold: %w", err)
	}
	return domain.RunConfig{Mode: mode, Tolerance: tolerance, Threshold: threshold}, nil
}

func (e *Engine) ValidateInvoice(ctx context.Context, cfg domain.RunConfig, invoice *extract.Invoice, session discoverydomain.Session) *domain.Result {
	result := &domain.Result{
		InvoiceNumber: invoice.Number,
		InvoiceDate:   invoice.Date,
		File:          invoice.File,
	}
	if session != nil {
		result.SessionID = session.ID()
	}

	for _, line := range invoice.Lines {
		validated := e.ValidateLine(ctx, cfg, invoice, line, session)
		result.Lines = append(result.Lines, validated)

		result.Summary.TotalParts++
		switch validated.Status {
		case domain.StatusPassed:
			result.Summary.PassedParts++
		case domain.StatusUnknown:
			result.Summary.UnknownParts++
		default:
			result.Summary.FailedParts++
		}
	}

	e.log.Info("invoice validated",
		zap.String("invoice_number", invoice.Number),
		zap.Int("total", result.Summary.TotalParts),
		zap.Int("passed", result.Summary.PassedParts),
		zap.Int("failed", result.Summary.FailedParts),
		zap.Int("unknown", result.Summary.UnknownParts),
	)
	return result
}

func (e *Engine) ValidateLine(ctx context.Context, cfg domain.RunConfig, invoice *extract.Invoice, line extract.LineItem, session discoverydomain.Session) (validated domain.ValidatedLine) {
	validated = domain.ValidatedLine{
		LineNumber:     line.LineNumber,
		PartNumber:     strings.TrimSpace(line.PartNumber),
		Description:    strings.TrimSpace(line.Description),
		ItemType:       strings.TrimSpace(line.ItemType),
		Quantity:       line.Quantity,
		ExtractedPrice: line.UnitPrice,
		LineTotal:      line.LineTotal,
		RawText:        line.RawText,
	}

	// One line's failure must never abort the rest of the invoice.
	defer func() {
		if r := recover(); r != nil {
			validated.Status = domain.StatusFailed
			validated.Errors = append(validated.Errors, fmt.Sprintf("unexpected error: %v", r))
			e.log.Error("validation panic downgraded to FAILED",
				zap.Int("line", line.LineNumber),
				zap.Any("panic", r),
			)
		}
	}()

	if validated.PartNumber == "" {
		validated.Status = domain.StatusFailed
		validated.Errors = append(validated.Errors, "missing part number")
		return validated
	}

	if cfg.Mode == settingsdomain.ModeThresholdBased {
		return e.validateThreshold(cfg, validated)
	}

	part, err := e.parts.FindByComponents(ctx, validated.ItemType, validated.Description, validated.PartNumber)
	if err != nil && !errors.Is(err, partsdomain.ErrNotFound) {
		validated.Status = domain.StatusFailed
		validated.Errors = append(validated.Errors, fmt.Sprintf("lookup failed: %v", err))
		return validated
	}

	if part == nil && session != nil {
		added, derr := session.HandleUnknown(ctx, unknownLine(invoice, line))
		if derr != nil {
			validated.Status = domain.StatusFailed
			validated.Errors = append(validated.Errors, fmt.Sprintf("discovery failed: %v", derr))
			return validated
		}
		part = added
	}

	if part == nil {
		validated.Status = domain.StatusUnknown
		validated.Errors = append(validated.Errors, "part not found in database (declined)")
		return validated
	}

	authorized := part.AuthorizedPrice
	validated.AuthorizedPrice = &authorized

	if validated.ExtractedPrice == nil {
		// No price claim to contest.
		validated.Status = domain.StatusPassed
		return validated
	}

	diff := validated.ExtractedPrice.Sub(authorized)
	validated.PriceDiff = &diff

	if diff.Abs().LessThanOrEqual(cfg.Tolerance) {
		validated.Status = domain.StatusPassed
		return validated
	}

	validated.Status = domain.StatusFailed
	validated.Errors = append(validated.Errors, fmt.Sprintf(
		"price mismatch: extracted %s, authorized %s", validated.ExtractedPrice, authorized,
	))
	if session != nil {
		session.RecordPriceMismatch(ctx, unknownLine(invoice, line), authorized)
	}
	return validated
}

// validateThreshold is the legacy simplified mode: no catalog lookup, no
// discovery, pass/fail purely on the extracted price against the cutoff.
func (e *Engine) validateThreshold(cfg domain.RunConfig, validated domain.ValidatedLine) domain.ValidatedLine {
	if validated.ExtractedPrice == nil {
		validated.Status = domain.StatusPassed
		return validated
	}
	if validated.ExtractedPrice.GreaterThan(cfg.Threshold) {
		validated.Status = domain.StatusFailed
		validated.Errors = append(validated.Errors, fmt.Sprintf(
			"price %s exceeds threshold %s", validated.ExtractedPrice, cfg.Threshold,
		))
		return validated
	}
	validated.Status = domain.StatusPassed
	return validated
}

func unknownLine(invoice *extract.Invoice, line extract.LineItem) discoverydomain.UnknownLine {
	return discoverydomain.UnknownLine{
		PartNumber:    line.PartNumber,
		Description:   line.Description,
		ItemType:      line.ItemType,
		InvoiceNumber: invoice.Number,
		InvoiceDate:   invoice.Date,
		LineNumber:    line.LineNumber,
		Quantity:      line.Quantity,
		Price:         line.UnitPrice,
	}
}
