package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/partsentry/internal/discovery/domain"
)

// PromptProvider resolves unknown parts interactively on a console. Invalid
// input is re-prompted; "q" aborts discovery for the whole session.
type PromptProvider struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptProvider(in io.Reader, out io.Writer) *PromptProvider {
	return &PromptProvider{in: bufio.NewReader(in), out: out}
}

func (p *PromptProvider) Resolve(ctx context.Context, part *domain.UnknownPart) (domain.Decision, error) {
	min, avg, max, hasPrice := part.PriceStats()

	fmt.Fprintf(p.out, "\nUnknown part: %s\n", part.PartNumber)
	if part.Description != "" {
		fmt.Fprintf(p.out, "  description: %s\n", part.Description)
	}
	if part.ItemType != "" {
		fmt.Fprintf(p.out, "  item type:   %s\n", part.ItemType)
	}
	fmt.Fprintf(p.out, "  occurrences: %d\n", len(part.Occurrences))
	if hasPrice {
		fmt.Fprintf(p.out, "  price:       min %s / avg %s / max %s\n", min, avg, max)
	} else {
		fmt.Fprintln(p.out, "  price:       none extracted")
	}

	for {
		if err := ctx.Err(); err != nil {
			return domain.Decision{}, err
		}

		if hasPrice {
			fmt.Fprint(p.out, "[a]dd at avg, add at mi[n], add at ma[x], [c]ustom price, [s]kip, [q]uit discovery: ")
		} else {
			fmt.Fprint(p.out, "[c]ustom price, [s]kip, [q]uit discovery: ")
		}

		choice, err := p.readLine()
		if err != nil {
			return domain.Decision{}, err
		}

		switch choice {
		case "a":
			if !hasPrice {
				break
			}
			return addDecision(avg, "interactive: average discovered price"), nil
		case "n":
			if !hasPrice {
				break
			}
			return addDecision(min, "interactive: minimum discovered price"), nil
		case "x":
			if !hasPrice {
				break
			}
			return addDecision(max, "interactive: maximum discovered price"), nil
		case "c":
			price, ok, err := p.readPrice()
			if err != nil {
				return domain.Decision{}, err
			}
			if !ok {
				continue
			}
			return addDecision(price, "interactive: custom price"), nil
		case "s":
			return domain.Decision{Action: domain.DecisionSkip, Rationale: "interactive: skipped"}, nil
		case "q":
			return domain.Decision{Action: domain.DecisionCancel, Rationale: "interactive: cancelled"}, nil
		}

		fmt.Fprintln(p.out, "unrecognized choice")
	}
}

func (p *PromptProvider) readPrice() (decimal.Decimal, bool, error) {
	fmt.Fprint(p.out, "price: ")
	raw, err := p.readLine()
	if err != nil {
		return decimal.Zero, false, err
	}
	price, perr := decimal.NewFromString(raw)
	if perr != nil || !price.IsPositive() {
		fmt.Fprintln(p.out, "price must be a positive number")
		return decimal.Zero, false, nil
	}
	return price, true, nil
}

func (p *PromptProvider) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		// EOF on stdin ends discovery the same way an explicit quit does.
		return "", domain.ErrCancelled
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func addDecision(price decimal.Decimal, rationale string) domain.Decision {
	return domain.Decision{Action: domain.DecisionAdd, Price: price, Rationale: rationale}
}

var _ domain.DecisionProvider = (*PromptProvider)(nil)
