package service

import (
	"context"

	"github.com/smallbiznis/partsentry/internal/discovery/domain"
)

// PolicyProvider resolves unknown parts without prompting. The default
// policy collects unknown parts into the audit log only; with AutoAdd the
// part is created at its discovered price. Never blocks.
type PolicyProvider struct {
	AutoAdd bool
}

func (p PolicyProvider) Resolve(ctx context.Context, part *domain.UnknownPart) (domain.Decision, error) {
	_ = ctx

	if !p.AutoAdd {
		return domain.Decision{
			Action:    domain.DecisionSkip,
			Rationale: "batch policy: collect only",
		}, nil
	}

	// The discovered price is the first one seen on an invoice line.
	for _, occ := range part.Occurrences {
		if occ.Price != nil && occ.Price.IsPositive() {
			return domain.Decision{
				Action:    domain.DecisionAdd,
				Price:     *occ.Price,
				Rationale: "batch policy: auto-add at discovered price",
			}, nil
		}
	}

	return domain.Decision{
		Action:    domain.DecisionSkip,
		Rationale: "batch policy: no usable price on invoice",
	}, nil
}

var _ domain.DecisionProvider = PolicyProvider{}
