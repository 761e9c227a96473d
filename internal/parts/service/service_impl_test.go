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

	"github.com/smallbiznis/partsentry/internal/parts/domain"
	"github.com/smallbiznis/partsentry/internal/parts/repository"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.Part{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func createReq(number, description, itemType, price string) domain.CreateRequest {
	return domain.CreateRequest{
		PartNumber:      number,
		Description:     description,
		ItemType:        itemType,
		AuthorizedPrice: decimal.RequireFromString(price),
	}
}

func TestCreate_AndFindByComponents(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.True(t, created.Active)

	// Lookup is insensitive to case and whitespace differences.
	found, err := svc.FindByComponents(ctx, "PARTS", "  widget   assembly ", "a1")
	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.AuthorizedPrice.Equal(decimal.RequireFromString("15.50")))
}

func TestCreate_DuplicateCompositeKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)

	_, err = svc.Create(ctx, createReq(" a1 ", "WIDGET  ASSEMBLY", "Parts", "20.00"))
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestCreate_SameNumberDifferentDescriptionCoexists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)
	second, err := svc.Create(ctx, createReq("A1", "Widget Assembly Deluxe", "parts", "25.00"))
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	found, err := svc.FindByComponents(ctx, "parts", "Widget Assembly Deluxe", "A1")
	assert.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("  ", "Widget", "parts", "10"))
	assert.ErrorIs(t, err, domain.ErrInvalidPartNumber)

	_, err = svc.Create(ctx, createReq("A1", "", "parts", "10"))
	assert.ErrorIs(t, err, domain.ErrInvalidDescription)

	_, err = svc.Create(ctx, createReq("A1", "Widget", "parts", "0"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, createReq("A1", "Widget", "parts", "-3.50"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	req := createReq("A1", "Widget", "parts", "10")
	req.Source = "guessed"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidSource)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	category := "fasteners"
	req := createReq("A1", "Widget Assembly", "parts", "15.50")
	req.Category = &category
	created, err := svc.Create(ctx, req)
	assert.NoError(t, err)

	newPrice := decimal.RequireFromString("17.25")
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, AuthorizedPrice: &newPrice})
	assert.NoError(t, err)
	assert.True(t, updated.AuthorizedPrice.Equal(newPrice))
	// Untouched fields survive a partial update.
	assert.NotNil(t, updated.Category)
	assert.Equal(t, "fasteners", *updated.Category)

	bad := decimal.Zero
	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, AuthorizedPrice: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID + 999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivate_HidesFromLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)

	assert.NoError(t, svc.Deactivate(ctx, created.ID))

	_, err = svc.FindByComponents(ctx, "parts", "Widget Assembly", "A1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	active := true
	items, total, err := svc.List(ctx, domain.ListFilter{Active: &active})
	assert.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)

	items, total, err = svc.List(ctx, domain.ListFilter{})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.EqualValues(t, 1, total)
	assert.False(t, items[0].Active)
}

func TestHardDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)

	assert.NoError(t, svc.HardDelete(ctx, created.ID))
	assert.ErrorIs(t, svc.HardDelete(ctx, created.ID), domain.ErrNotFound)

	_, err = svc.FindByNumber(ctx, "A1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq("A1", "Widget Assembly", "parts", "15.50"))
	assert.NoError(t, err)

	csvData := strings.Join([]string{
		"part_number,description,item_type,authorized_price,category",
		"A1,Widget Assembly,parts,16.00,",           // duplicate key
		"B2,Gadget Bracket,parts,8.75,brackets",     // created
		"C3,Spacer Kit,parts,not-a-price,",          // invalid price
		",Unnamed,parts,1.00,",                      // invalid part number
		"D4,Drive Belt,parts,12.00,belts",           // created
	}, "\n")

	summary, err := svc.ImportCSV(ctx, strings.NewReader(csvData))
	assert.NoError(t, err)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Duplicate)
	assert.Equal(t, 2, summary.Invalid)

	imported, err := svc.FindByNumber(ctx, "B2")
	assert.NoError(t, err)
	assert.Equal(t, domain.SourceImported, imported.Source)
	assert.Equal(t, "brackets", *imported.Category)
}

func TestImportCSV_MissingColumn(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("part_number,description\nA1,Widget"))
	assert.Error(t, err)
}
