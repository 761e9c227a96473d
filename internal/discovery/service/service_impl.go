package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/partsentry/internal/discovery/domain"
	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Parts partsdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	parts partsdomain.Service
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("discovery.service"),
		repo:  p.Repo,
		parts: p.Parts,
		genID: p.GenID,
	}
}

func (s *Service) NewSession(provider domain.DecisionProvider) domain.Session {
	id := uuid.NewString()
	return &session{
		id:       id,
		svc:      s,
		provider: provider,
		log:      s.log.Named("session").With(zap.String("session_id", id)),
		unknown:  make(map[string]*domain.UnknownPart),
		added:    make(map[string]*partsdomain.Part),
	}
}

// Append writes one audit entry. The log is append-only: there is no
// update or delete path besides PurgeOlderThan.
func (s *Service) Append(ctx context.Context, entry *domain.LogEntry) (*domain.LogEntry, error) {
	if entry == nil || strings.TrimSpace(entry.PartNumber) == "" {
		return nil, fmt.Errorf("%w: part number is required", domain.ErrInvalidEntry)
	}
	if entry.DiscoveredPrice != nil && !entry.DiscoveredPrice.IsPositive() {
		return nil, fmt.Errorf("%w: discovered price must be > 0", domain.ErrInvalidEntry)
	}
	if entry.AuthorizedPrice != nil && !entry.AuthorizedPrice.IsPositive() {
		return nil, fmt.Errorf("%w: authorized price must be > 0", domain.ErrInvalidEntry)
	}
	switch entry.Action {
	case domain.ActionDiscovered, domain.ActionAdded, domain.ActionUpdated,
		domain.ActionSkipped, domain.ActionPriceMismatch:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidEntry, entry.Action)
	}

	entry.ID = s.genID.Generate()
	entry.PartNumber = strings.TrimSpace(entry.PartNumber)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return entry, nil
}

func (s *Service) Query(ctx context.Context, filter domain.QueryFilter) ([]domain.LogEntry, error) {
	entries, err := s.repo.Query(ctx, s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return entries, nil
}

func (s *Service) QueryDays(ctx context.Context, filter domain.QueryFilter, daysBack int) ([]domain.LogEntry, error) {
	if daysBack > 0 {
		since := domain.RetentionCutoff(time.Now(), daysBack)
		filter.Since = &since
	}
	return s.Query(ctx, filter)
}

func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidDays, days)
	}

	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purged, err = s.repo.PurgeOlderThan(ctx, tx, domain.RetentionCutoff(time.Now(), days))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	s.log.Info("discovery log purged", zap.Int("retention_days", days), zap.Int64("entries", purged))
	return purged, nil
}

// SessionSummary rebuilds a summary from log rows. Occurrence multiplicity
// is a session-memory statistic; the log records one discovered entry per
// unique key, so the reconstructed occurrence count equals the unique count.
func (s *Service) SessionSummary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	entries, err := s.Query(ctx, domain.QueryFilter{SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{SessionID: sessionID}
	for _, entry := range entries {
		switch entry.Action {
		case domain.ActionDiscovered:
			summary.UniqueParts++
			summary.TotalOccurrences++
		case domain.ActionAdded:
			summary.Added++
		case domain.ActionSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}
