package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Service reads and writes typed settings. Getters fail with ErrNotFound
// for absent keys; the *Or variants substitute a default instead. A stored
// value is always returned in its declared type, never as a raw string.
type Service interface {
	String(ctx context.Context, key string) (string, error)
	StringOr(ctx context.Context, key, def string) (string, error)
	Number(ctx context.Context, key string) (decimal.Decimal, error)
	NumberOr(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error)
	Bool(ctx context.Context, key string) (bool, error)
	BoolOr(ctx context.Context, key string, def bool) (bool, error)
	JSON(ctx context.Context, key string, out any) error

	Set(ctx context.Context, req SetRequest) (*ConfigEntry, error)
	List(ctx context.Context, category string) ([]ConfigEntry, error)
}

type SetRequest struct {
	Key         string
	Value       string
	DataType    DataType
	Category    string
	Description *string
}

var (
	ErrNotFound     = errors.New("setting_not_found")
	ErrInvalidKey   = errors.New("invalid_setting_key")
	ErrInvalidValue = errors.New("invalid_setting_value")
	ErrTypeMismatch = errors.New("setting_type_mismatch")
	ErrStorage      = errors.New("storage_error")
)
