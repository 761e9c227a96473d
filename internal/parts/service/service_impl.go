package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partsentry/internal/parts/domain"
	"github.com/smallbiznis/partsentry/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("parts.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Part, error) {
	partNumber := strings.TrimSpace(req.PartNumber)
	if partNumber == "" {
		return nil, domain.ErrInvalidPartNumber
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidDescription
	}
	if !req.AuthorizedPrice.IsPositive() {
		return nil, fmt.Errorf("%w: authorized price must be > 0, got %s", domain.ErrInvalidPrice, req.AuthorizedPrice)
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	switch source {
	case domain.SourceManual, domain.SourceDiscovered, domain.SourceImported:
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSource, source)
	}

	now := time.Now().UTC()
	part := &domain.Part{
		ID:               s.genID.Generate(),
		PartKey:          domain.CompositeKey(req.ItemType, description, partNumber),
		PartNumber:       partNumber,
		Description:      description,
		ItemType:         strings.TrimSpace(req.ItemType),
		AuthorizedPrice:  req.AuthorizedPrice,
		Category:         trimPtr(req.Category),
		Source:           source,
		FirstSeenInvoice: trimPtr(req.FirstSeenInvoice),
		Active:           true,
		Notes:            trimPtr(req.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.Metadata != nil {
		part.Metadata = datatypes.JSONMap(req.Metadata)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, part)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: part %q (%s) already exists", domain.ErrDuplicateKey, partNumber, part.PartKey)
		}
		return nil, storageErr(err)
	}

	s.log.Info("part created",
		zap.String("part_number", part.PartNumber),
		zap.String("source", string(part.Source)),
		zap.String("authorized_price", part.AuthorizedPrice.String()),
	)
	return part, nil
}

func (s *Service) FindByComponents(ctx context.Context, itemType, description, partNumber string) (*domain.Part, error) {
	key := domain.CompositeKey(itemType, description, partNumber)
	part, err := s.repo.FindByKey(ctx, s.db, key)
	if err != nil {
		return nil, storageErr(err)
	}
	if part == nil || !part.Active {
		return nil, domain.ErrNotFound
	}
	return part, nil
}

func (s *Service) FindByNumber(ctx context.Context, partNumber string) (*domain.Part, error) {
	part, err := s.repo.FindByNumber(ctx, s.db, partNumber)
	if err != nil {
		return nil, storageErr(err)
	}
	if part == nil {
		return nil, domain.ErrNotFound
	}
	return part, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Part, error) {
	if req.AuthorizedPrice != nil && !req.AuthorizedPrice.IsPositive() {
		return nil, fmt.Errorf("%w: authorized price must be > 0, got %s", domain.ErrInvalidPrice, req.AuthorizedPrice)
	}

	var updated *domain.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := s.repo.FindByID(ctx, tx, req.ID)
		if err != nil {
			return storageErr(err)
		}
		if part == nil {
			return domain.ErrNotFound
		}

		if req.AuthorizedPrice != nil {
			part.AuthorizedPrice = *req.AuthorizedPrice
		}
		if req.Category != nil {
			part.Category = trimPtr(req.Category)
		}
		if req.Notes != nil {
			part.Notes = trimPtr(req.Notes)
		}
		if req.Active != nil {
			part.Active = *req.Active
		}

		part.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, part); err != nil {
			return storageErr(err)
		}
		updated = part
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	active := false
	_, err := s.Update(ctx, domain.UpdateRequest{ID: id, Active: &active})
	return err
}

// HardDelete removes the row entirely. Irreversible; Deactivate is the default.
func (s *Service) HardDelete(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		part, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return storageErr(err)
		}
		if part == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return storageErr(err)
		}
		return nil
	})
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Part, int64, error) {
	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

// ImportCSV loads parts from CSV with a header row of
// part_number,description,item_type,authorized_price[,category][,notes].
// Duplicate and invalid rows are tallied, not fatal.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*domain.ImportSummary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"part_number", "description", "authorized_price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	summary := &domain.ImportSummary{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		summary.Rows++

		price, err := decimal.NewFromString(strings.TrimSpace(field(record, cols, "authorized_price")))
		if err != nil {
			summary.Invalid++
			continue
		}

		req := domain.CreateRequest{
			PartNumber:      field(record, cols, "part_number"),
			Description:     field(record, cols, "description"),
			ItemType:        field(record, cols, "item_type"),
			AuthorizedPrice: price,
			Source:          domain.SourceImported,
		}
		if category := strings.TrimSpace(field(record, cols, "category")); category != "" {
			req.Category = &category
		}
		if notes := strings.TrimSpace(field(record, cols, "notes")); notes != "" {
			req.Notes = &notes
		}

		_, err = s.Create(ctx, req)
		switch {
		case err == nil:
			summary.Created++
		case errors.Is(err, domain.ErrDuplicateKey):
			summary.Duplicate++
		case domain.IsValidationErr(err):
			summary.Invalid++
		default:
			return summary, err
		}
	}

	s.log.Info("csv import finished",
		zap.Int("rows", summary.Rows),
		zap.Int("created", summary.Created),
		zap.Int("duplicate", summary.Duplicate),
		zap.Int("invalid", summary.Invalid),
	)
	return summary, nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
