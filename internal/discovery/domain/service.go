package domain

import (
	"context"
	"errors"
	"time"

	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	"github.com/shopspring/decimal"
)

// DecisionAction is what a provider chose for one unknown part.
type DecisionAction string

const (
	DecisionAdd    DecisionAction = "add"
	DecisionSkip   DecisionAction = "skip"
	DecisionCancel DecisionAction = "cancel"
)

// Decision resolves one unknown part. Price is required for DecisionAdd.
type Decision struct {
	Action    DecisionAction
	Price     decimal.Decimal
	Rationale string
}

// DecisionProvider decides what to do with an unknown part. Implementations
// are either interactive (console) or policy-driven (batch); the session
// never talks to a console directly.
type DecisionProvider interface {
	Resolve(ctx context.Context, part *UnknownPart) (Decision, error)
}

// Session deduplicates and resolves unknown parts for one processing run.
// Safe for use by a single worker; parallel batch runs hold one session per
// file and rely on the catalog's uniqueness constraint across workers.
type Session interface {
	ID() string
	// HandleUnknown records the occurrence and drives the decision state
	// machine for its composite key. It returns the catalog part when the
	// key was added (by this or a racing session), or nil when the part
	// stays unknown.
	HandleUnknown(ctx context.Context, line UnknownLine) (*partsdomain.Part, error)
	// RecordPriceMismatch appends an audit entry for a known part whose
	// extracted price fell outside tolerance.
	RecordPriceMismatch(ctx context.Context, line UnknownLine, authorized decimal.Decimal)
	// Summary derives statistics from in-memory state.
	Summary() Summary
	// End tears the session down and logs the summary.
	End()
}

// Service owns the append-only discovery log and creates sessions.
type Service interface {
	NewSession(provider DecisionProvider) Session
	Append(ctx context.Context, entry *LogEntry) (*LogEntry, error)
	Query(ctx context.Context, filter QueryFilter) ([]LogEntry, error)
	// QueryDays is Query limited to entries newer than daysBack days.
	QueryDays(ctx context.Context, filter QueryFilter, daysBack int) ([]LogEntry, error)
	// PurgeOlderThan removes entries older than the retention window and
	// returns how many were deleted. The only sanctioned bulk mutation.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	// SessionSummary reconstructs a summary from log rows; the durable
	// source of truth once the in-memory session is gone.
	SessionSummary(ctx context.Context, sessionID string) (*Summary, error)
}

var (
	ErrInvalidEntry = errors.New("invalid_log_entry")
	ErrInvalidDays  = errors.New("invalid_retention_days")
	ErrStorage      = errors.New("storage_error")
	ErrCancelled    = errors.New("discovery_cancelled")
)

// RetentionCutoff converts a day count to the purge cutoff instant.
func RetentionCutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days)
}
