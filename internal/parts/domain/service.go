package domain

import (
	"context"
	"errors"
	"io"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Part, error)
	// FindByComponents is the canonical lookup used by validation. It
	// returns ErrNotFound when no active part matches the composite key.
	FindByComponents(ctx context.Context, itemType, description, partNumber string) (*Part, error)
	// FindByNumber is a convenience lookup by part number alone. Two parts
	// may share a number, so the newest active match wins.
	FindByNumber(ctx context.Context, partNumber string) (*Part, error)
	Update(ctx context.Context, req UpdateRequest) (*Part, error)
	Deactivate(ctx context.Context, id snowflake.ID) error
	HardDelete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, filter ListFilter) ([]Part, int64, error)
	ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

type CreateRequest struct {
	PartNumber       string
	Description      string
	ItemType         string
	AuthorizedPrice  decimal.Decimal
	Category         *string
	Source           Source
	FirstSeenInvoice *string
	Notes            *string
	Metadata         map[string]any
}

type UpdateRequest struct {
	ID              snowflake.ID
	AuthorizedPrice *decimal.Decimal
	Category        *string
	Notes           *string
	Active          *bool
}

type ImportSummary struct {
	Rows      int
	Created   int
	Duplicate int
	Invalid   int
}

var (
	ErrInvalidPartNumber  = errors.New("invalid_part_number")
	ErrInvalidDescription = errors.New("invalid_description")
	ErrInvalidPrice       = errors.New("invalid_price")
	ErrInvalidSource      = errors.New("invalid_source")
	ErrDuplicateKey       = errors.New("duplicate_key")
	ErrNotFound           = errors.New("not_found")
	ErrStorage            = errors.New("storage_error")
)

// IsValidationErr reports whether err is malformed-input rejection rather
// than a lookup or storage failure.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidPartNumber) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidSource)
}
