package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partsentry/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("settings.service"),
		repo: p.Repo,
	}
}

func (s *Service) String(ctx context.Context, key string) (string, error) {
	entry, err := s.get(ctx, key, domain.TypeString)
	if err != nil {
		return "", err
	}
	return entry.Value, nil
}

func (s *Service) StringOr(ctx context.Context, key, def string) (string, error) {
	value, err := s.String(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return def, nil
	}
	return value, err
}

func (s *Service) Number(ctx context.Context, key string) (decimal.Decimal, error) {
	entry, err := s.get(ctx, key, domain.TypeNumber)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(entry.Value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a number: %v", domain.ErrTypeMismatch, key, err)
	}
	return value, nil
}

func (s *Service) NumberOr(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	value, err := s.Number(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return def, nil
	}
	return value, err
}

func (s *Service) Bool(ctx context.Context, key string) (bool, error) {
	entry, err := s.get(ctx, key, domain.TypeBoolean)
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(entry.Value)
	if err != nil {
		return false, fmt.Errorf("%w: %s is not a boolean: %v", domain.ErrTypeMismatch, key, err)
	}
	return value, nil
}

func (s *Service) BoolOr(ctx context.Context, key string, def bool) (bool, error) {
	value, err := s.Bool(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return def, nil
	}
	return value, err
}

func (s *Service) JSON(ctx context.Context, key string, out any) error {
	entry, err := s.get(ctx, key, domain.TypeJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(entry.Value), out); err != nil {
		return fmt.Errorf("%w: %s is not valid json: %v", domain.ErrTypeMismatch, key, err)
	}
	return nil
}

func (s *Service) Set(ctx context.Context, req domain.SetRequest) (*domain.ConfigEntry, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, domain.ErrInvalidKey
	}

	dataType := req.DataType
	if dataType == "" {
		dataType = domain.TypeString
	}
	switch dataType {
	case domain.TypeString, domain.TypeNumber, domain.TypeBoolean, domain.TypeJSON:
	default:
		return nil, fmt.Errorf("%w: unknown data type %q", domain.ErrInvalidValue, dataType)
	}

	value := strings.TrimSpace(req.Value)
	if err := validateValue(key, value, dataType); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}

	now := time.Now().UTC()
	entry := &domain.ConfigEntry{
		Key:         key,
		Value:       value,
		DataType:    dataType,
		Category:    category,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Upsert(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	s.log.Info("setting updated", zap.String("key", key), zap.String("value", value))
	return entry, nil
}

func (s *Service) List(ctx context.Context, category string) ([]domain.ConfigEntry, error) {
	entries, err := s.repo.List(ctx, s.db, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return entries, nil
}

func (s *Service) get(ctx context.Context, key string, want domain.DataType) (*domain.ConfigEntry, error) {
	entry, err := s.repo.Get(ctx, s.db, strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
	}
	if entry.DataType != want {
		return nil, fmt.Errorf("%w: %s is declared %s, requested %s", domain.ErrTypeMismatch, key, entry.DataType, want)
	}
	return entry, nil
}

// validateValue enforces both the declared data type round-trip and the
// domain constraints of well-known keys.
func validateValue(key, value string, dataType domain.DataType) error {
	switch dataType {
	case domain.TypeNumber:
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidValue, value)
		}
	case domain.TypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidValue, value)
		}
	case domain.TypeJSON:
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("%w: %q is not valid json", domain.ErrInvalidValue, value)
		}
	}

	switch key {
	case domain.KeyPriceTolerance:
		tolerance, err := decimal.NewFromString(value)
		if err != nil || tolerance.IsNegative() || tolerance.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s must be a number in [0,1]", domain.ErrInvalidValue, key)
		}
	case domain.KeyPriceThreshold:
		threshold, err := decimal.NewFromString(value)
		if err != nil || !threshold.IsPositive() {
			return fmt.Errorf("%w: %s must be a number > 0", domain.ErrInvalidValue, key)
		}
	case domain.KeyValidationMode:
		if value != domain.ModePartsBased && value != domain.ModeThresholdBased {
			return fmt.Errorf("%w: %s must be %s or %s", domain.ErrInvalidValue, key, domain.ModePartsBased, domain.ModeThresholdBased)
		}
	case domain.KeyDiscoveryMode:
		if value != domain.DiscoveryInteractive && value != domain.DiscoveryBatch {
			return fmt.Errorf("%w: %s must be %s or %s", domain.ErrInvalidValue, key, domain.DiscoveryInteractive, domain.DiscoveryBatch)
		}
	case domain.KeyBatchWorkers:
		workers, err := strconv.Atoi(value)
		if err != nil || workers < 1 {
			return fmt.Errorf("%w: %s must be an integer >= 1", domain.ErrInvalidValue, key)
		}
	}

	return nil
}
