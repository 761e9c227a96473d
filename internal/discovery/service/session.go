package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partsentry/internal/discovery/domain"
	partsdomain "github.com/smallbiznis/partsentry/internal/parts/domain"
	"go.uber.org/zap"
)

// session tracks unknown parts for one processing run. Each composite key
// is presented to the decision provider at most once; later lines hitting
// the same key reuse the recorded outcome.
type session struct {
	id       string
	svc      *Service
	provider domain.DecisionProvider
	log      *zap.Logger

	mu        sync.Mutex
	unknown   map[string]*domain.UnknownPart
	added     map[string]*partsdomain.Part
	skipped   int
	cancelled bool
}

func (s *session) ID() string { return s.id }

func (s *session) HandleUnknown(ctx context.Context, line domain.UnknownLine) (*partsdomain.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := partsdomain.CompositeKey(line.ItemType, line.Description, line.PartNumber)
	part, seen := s.unknown[key]
	if !seen {
		part = &domain.UnknownPart{
			Key:         key,
			PartNumber:  strings.TrimSpace(line.PartNumber),
			Description: strings.TrimSpace(line.Description),
			ItemType:    strings.TrimSpace(line.ItemType),
			State:       domain.StateDiscovered,
		}
		s.unknown[key] = part
	}
	part.Occurrences = append(part.Occurrences, domain.Occurrence{
		InvoiceNumber: line.InvoiceNumber,
		InvoiceDate:   line.InvoiceDate,
		LineNumber:    line.LineNumber,
		Quantity:      line.Quantity,
		Price:         line.Price,
	})

	if !seen {
		if _, err := s.svc.Append(ctx, &domain.LogEntry{
			PartNumber:      part.PartNumber,
			Description:     part.Description,
			ItemType:        part.ItemType,
			InvoiceNumber:   line.InvoiceNumber,
			InvoiceDate:     line.InvoiceDate,
			DiscoveredPrice: line.Price,
			Action:          domain.ActionDiscovered,
			SessionID:       s.id,
		}); err != nil {
			return nil, err
		}
	}

	switch part.State {
	case domain.StateAdded:
		return s.added[key], nil
	case domain.StateSkipped:
		return nil, nil
	}
	if s.cancelled {
		return nil, nil
	}

	return s.resolve(ctx, key, part, line)
}

func (s *session) resolve(ctx context.Context, key string, part *domain.UnknownPart, line domain.UnknownLine) (*partsdomain.Part, error) {
	part.State = domain.StateResolving

	decision, err := s.provider.Resolve(ctx, part)
	if err != nil {
		part.State = domain.StateDiscovered
		if errors.Is(err, domain.ErrCancelled) {
			s.cancel()
			return nil, nil
		}
		return nil, err
	}

	switch decision.Action {
	case domain.DecisionAdd:
		return s.addPart(ctx, key, part, line, decision)
	case domain.DecisionSkip:
		part.State = domain.StateSkipped
		s.skipped++
		if _, err := s.svc.Append(ctx, &domain.LogEntry{
			PartNumber:      part.PartNumber,
			Description:     part.Description,
			ItemType:        part.ItemType,
			InvoiceNumber:   line.InvoiceNumber,
			InvoiceDate:     line.InvoiceDate,
			DiscoveredPrice: line.Price,
			Action:          domain.ActionSkipped,
			UserDecision:    decision.Rationale,
			SessionID:       s.id,
		}); err != nil {
			return nil, err
		}
		return nil, nil
	case domain.DecisionCancel:
		part.State = domain.StateDiscovered
		s.cancel()
		return nil, nil
	default:
		part.State = domain.StateDiscovered
		return nil, nil
	}
}

func (s *session) addPart(ctx context.Context, key string, part *domain.UnknownPart, line domain.UnknownLine, decision domain.Decision) (*partsdomain.Part, error) {
	invoice := strings.TrimSpace(line.InvoiceNumber)
	req := partsdomain.CreateRequest{
		PartNumber:      part.PartNumber,
		Description:     part.Description,
		ItemType:        part.ItemType,
		AuthorizedPrice: decision.Price,
		Source:          partsdomain.SourceDiscovered,
	}
	if invoice != "" {
		req.FirstSeenInvoice = &invoice
	}

	created, err := s.svc.parts.Create(ctx, req)
	if errors.Is(err, partsdomain.ErrDuplicateKey) {
		// A concurrent worker won the race; the uniqueness constraint is the
		// cross-session arbiter. Fall back to re-reading the winner's row.
		created, err = s.svc.parts.FindByComponents(ctx, part.ItemType, part.Description, part.PartNumber)
		if errors.Is(err, partsdomain.ErrNotFound) {
			part.State = domain.StateSkipped
			s.skipped++
			return nil, nil
		}
	}
	if err != nil {
		part.State = domain.StateDiscovered
		return nil, err
	}

	part.State = domain.StateAdded
	s.added[key] = created

	price := decision.Price
	if _, err := s.svc.Append(ctx, &domain.LogEntry{
		PartNumber:      part.PartNumber,
		Description:     part.Description,
		ItemType:        part.ItemType,
		InvoiceNumber:   line.InvoiceNumber,
		InvoiceDate:     line.InvoiceDate,
		DiscoveredPrice: line.Price,
		AuthorizedPrice: &price,
		Action:          domain.ActionAdded,
		UserDecision:    decision.Rationale,
		SessionID:       s.id,
	}); err != nil {
		return nil, err
	}

	s.log.Info("part added from discovery",
		zap.String("part_number", part.PartNumber),
		zap.String("authorized_price", decision.Price.String()),
	)
	return created, nil
}

func (s *session) cancel() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	s.log.Info("discovery cancelled, remaining unknown parts stay unresolved")
}

func (s *session) RecordPriceMismatch(ctx context.Context, line domain.UnknownLine, authorized decimal.Decimal) {
	// The line is already classified FAILED; a broken audit write must not
	// escalate, so this append is best effort.
	if _, err := s.svc.Append(ctx, &domain.LogEntry{
		PartNumber:      line.PartNumber,
		Description:     line.Description,
		ItemType:        line.ItemType,
		InvoiceNumber:   line.InvoiceNumber,
		InvoiceDate:     line.InvoiceDate,
		DiscoveredPrice: line.Price,
		AuthorizedPrice: &authorized,
		Action:          domain.ActionPriceMismatch,
		SessionID:       s.id,
	}); err != nil {
		s.log.Warn("price mismatch audit write failed", zap.Error(err))
	}
}

func (s *session) Summary() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := domain.Summary{SessionID: s.id, UniqueParts: len(s.unknown)}
	for _, part := range s.unknown {
		summary.TotalOccurrences += len(part.Occurrences)
	}
	summary.Added = len(s.added)
	summary.Skipped = s.skipped
	return summary
}

func (s *session) End() {
	summary := s.Summary()
	s.log.Info("discovery session ended",
		zap.Int("unique_parts", summary.UniqueParts),
		zap.Int("occurrences", summary.TotalOccurrences),
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
	)

	s.mu.Lock()
	s.unknown = make(map[string]*domain.UnknownPart)
	s.added = make(map[string]*partsdomain.Part)
	s.mu.Unlock()
}
