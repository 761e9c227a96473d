package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	discoverydomain "github.com/smallbiznis/partsentry/internal/discovery/domain"
	discoveryrepo "github.com/smallbiznis/partsentry/internal/discovery/repository"
	discoveryservice "github.com/smallbiznis/partsentry/internal/discovery/service"
	"github.com/smallbiznis/partsentry/internal/extract"
	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	partsrepo "github.com/smallbiznis/partsentry/internal/parts/repository"
	partsservice "github.com/smallbiznis/partsentry/internal/parts/service"
	settingsdomain "github.com/smallbiznis/partsentry/internal/settings/domain"
	settingsrepo "github.com/smallbiznis/partsentry/internal/settings/repository"
	settingsservice "github.com/smallbiznis/partsentry/internal/settings/service"
	"github.com/smallbiznis/partsentry/internal/validation/domain"
)

type engineFixture struct {
	engine    domain.Engine
	parts     partsdomain.Service
	settings  settingsdomain.Service
	discovery discoverydomain.Service
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&partsdomain.Part{},
		&settingsdomain.ConfigEntry{},
		&discoverydomain.LogEntry{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	log := zap.NewNop()

	parts := partsservice.New(partsservice.Params{DB: db, Log: log, GenID: node, Repo: partsrepo.Provide()})
	settings := settingsservice.New(settingsservice.Params{DB: db, Log: log, Repo: settingsrepo.Provide()})
	discovery := discoveryservice.New(discoveryservice.Params{DB: db, Log: log, GenID: node, Repo: discoveryrepo.Provide(), Parts: parts})

	return &engineFixture{
		engine:    New(Params{Log: log, Parts: parts, Settings: settings}),
		parts:     parts,
		settings:  settings,
		discovery: discovery,
	}
}

func (f *engineFixture) seedPart(t *testing.T, number, description, price string) *partsdomain.Part {
	t.Helper()
	part, err := f.parts.Create(context.Background(), partsdomain.CreateRequest{
		PartNumber:      number,
		Description:     description,
		ItemType:        "parts",
		AuthorizedPrice: decimal.RequireFromString(price),
	})
	assert.NoError(t, err)
	return part
}

func lineItem(number, description string, lineNo int, price string) extract.LineItem {
	item := extract.LineItem{
		LineNumber:  lineNo,
		PartNumber:  number,
		Description: description,
		ItemType:    "parts",
		Quantity:    decimal.NewFromInt(1),
	}
	if price != "" {
		p := decimal.RequireFromString(price)
		item.UnitPrice = &p
	}
	return item
}

func testInvoice(lines ...extract.LineItem) *extract.Invoice {
	return &extract.Invoice{
		Number: "INV-100",
		Date:   "2026-08-01",
		File:   "INV-100.pdf",
		Lines:  lines,
	}
}

func TestValidateLine_ToleranceIsInclusive(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedPart(t, "A1", "Widget Assembly", "15.50")

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)
	assert.Equal(t, settingsdomain.ModePartsBased, cfg.Mode)
	assert.True(t, cfg.Tolerance.Equal(DefaultTolerance))

	session := f.discovery.NewSession(discoveryservice.PolicyProvider{})
	invoice := testInvoice()

	exact := f.engine.ValidateLine(ctx, cfg, invoice, lineItem("A1", "Widget Assembly", 1, "15.50"), session)
	assert.Equal(t, domain.StatusPassed, exact.Status)

	// A diff exactly at tolerance still passes.
	atEdge := f.engine.ValidateLine(ctx, cfg, invoice, lineItem("A1", "Widget Assembly", 2, "15.501"), session)
	assert.Equal(t, domain.StatusPassed, atEdge.Status)

	over := f.engine.ValidateLine(ctx, cfg, invoice, lineItem("A1", "Widget Assembly", 3, "15.51"), session)
	assert.Equal(t, domain.StatusFailed, over.Status)
	assert.NotNil(t, over.PriceDiff)
	assert.NotEmpty(t, over.Errors)

	under := f.engine.ValidateLine(ctx, cfg, invoice, lineItem("A1", "Widget Assembly", 4, "15.49"), session)
	assert.Equal(t, domain.StatusFailed, under.Status)

	// The out-of-tolerance lines left price_mismatch audit entries.
	mismatches, err := f.discovery.Query(ctx, discoverydomain.QueryFilter{
		SessionID: session.ID(),
		Action:    discoverydomain.ActionPriceMismatch,
	})
	assert.NoError(t, err)
	assert.Len(t, mismatches, 2)
}

func TestValidateLine_ConfiguredTolerance(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedPart(t, "A1", "Widget Assembly", "15.50")

	_, err := f.settings.Set(ctx, settingsdomain.SetRequest{
		Key:      settingsdomain.KeyPriceTolerance,
		Value:    "0.05",
		DataType: settingsdomain.TypeNumber,
	})
	assert.NoError(t, err)

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	validated := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("A1", "Widget Assembly", 1, "15.54"), nil)
	assert.Equal(t, domain.StatusPassed, validated.Status)
}

func TestValidateLine_MissingPartNumberFailsFast(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	validated := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("  ", "Widget", 1, "15.50"), nil)
	assert.Equal(t, domain.StatusFailed, validated.Status)
	assert.Contains(t, validated.Errors, "missing part number")
}

func TestValidateLine_MissingPricePassesForKnownPart(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedPart(t, "A1", "Widget Assembly", "15.50")

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	validated := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("A1", "Widget Assembly", 1, ""), nil)
	assert.Equal(t, domain.StatusPassed, validated.Status)
	assert.NotNil(t, validated.AuthorizedPrice)
	assert.Nil(t, validated.PriceDiff)
}

func TestValidateLine_UnknownDeclinedStaysUnknown(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	session := f.discovery.NewSession(discoveryservice.PolicyProvider{})
	validated := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 1, "42.00"), session)
	assert.Equal(t, domain.StatusUnknown, validated.Status)
	assert.Nil(t, validated.AuthorizedPrice)

	discovered, err := f.discovery.Query(ctx, discoverydomain.QueryFilter{
		SessionID: session.ID(),
		Action:    discoverydomain.ActionDiscovered,
	})
	assert.NoError(t, err)
	assert.Len(t, discovered, 1)
}

func TestValidateLine_AutoAddThenValidates(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	session := f.discovery.NewSession(discoveryservice.PolicyProvider{AutoAdd: true})
	validated := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 1, "42.00"), session)
	assert.Equal(t, domain.StatusPassed, validated.Status)

	// Re-validation finds the part in the catalog without a session.
	again := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 1, "42.00"), nil)
	assert.Equal(t, domain.StatusPassed, again.Status)
}

func TestValidateLine_ThresholdMode(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	_, err := f.settings.Set(ctx, settingsdomain.SetRequest{
		Key:   settingsdomain.KeyValidationMode,
		Value: settingsdomain.ModeThresholdBased,
	})
	assert.NoError(t, err)

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)
	assert.Equal(t, settingsdomain.ModeThresholdBased, cfg.Mode)

	// No catalog lookup, no discovery: unknown parts pass under the cutoff.
	atCutoff := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 1, "1000"), nil)
	assert.Equal(t, domain.StatusPassed, atCutoff.Status)

	over := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 2, "1000.01"), nil)
	assert.Equal(t, domain.StatusFailed, over.Status)

	noPrice := f.engine.ValidateLine(ctx, cfg, testInvoice(), lineItem("Z9", "Mystery Part", 3, ""), nil)
	assert.Equal(t, domain.StatusPassed, noPrice.Status)
}

func TestValidateInvoice_SummaryCounts(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedPart(t, "A1", "Widget Assembly", "15.50")
	f.seedPart(t, "B2", "Gadget Bracket", "8.75")

	cfg, err := f.engine.RunConfig(ctx)
	assert.NoError(t, err)

	session := f.discovery.NewSession(discoveryservice.PolicyProvider{})
	invoice := testInvoice(
		lineItem("A1", "Widget Assembly", 1, "15.50"),
		lineItem("B2", "Gadget Bracket", 2, "9.99"),
		lineItem("Z9", "Mystery Part", 3, "42.00"),
		lineItem("", "No Number", 4, "1.00"),
	)

	result := f.engine.ValidateInvoice(ctx, cfg, invoice, session)
	assert.Equal(t, "INV-100", result.InvoiceNumber)
	assert.Equal(t, session.ID(), result.SessionID)
	assert.Len(t, result.Lines, 4)
	assert.Equal(t, 4, result.Summary.TotalParts)
	assert.Equal(t, 1, result.Summary.PassedParts)
	assert.Equal(t, 2, result.Summary.FailedParts)
	assert.Equal(t, 1, result.Summary.UnknownParts)
}
