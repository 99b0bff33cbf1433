// Package paper provides simulated execution sinks: an exchange that fills
// every order and a splitter that charges gas without touching the chain.
package paper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const maxBatchOrders = 16

// Exchange accepts every well-formed order. It exists so the execution path
// is identical in shape to a live venue adapter while keeping all effects in
// the ledger.
type Exchange struct{}

// NewExchange creates a paper exchange.
func NewExchange() *Exchange {
	return &Exchange{}
}

// Submit accepts each order unless it is malformed. A rejected leg reports
// its reason; the batch itself only errors on structural problems.
func (e *Exchange) Submit(ctx context.Context, orders []domain.Order) ([]domain.OrderResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	if len(orders) > maxBatchOrders {
		return nil, fmt.Errorf("paper.Submit: batch of %d exceeds %d orders", len(orders), maxBatchOrders)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("paper.Submit: %w", err)
	}

	results := make([]domain.OrderResult, len(orders))
	for i, o := range orders {
		results[i] = domain.OrderResult{Order: o, Accepted: true}
		if o.Sets <= 0 {
			results[i].Accepted = false
			results[i].Reason = "non-positive size"
			continue
		}
		if o.Price < 0 || o.Price > 1 {
			results[i].Accepted = false
			results[i].Reason = "price outside [0,1]"
			continue
		}
		slog.Debug("paper fill",
			"market", o.MarketID,
			"outcome", o.Outcome,
			"side", o.Side,
			"price", o.Price,
			"sets", o.Sets,
		)
	}
	return results, nil
}
