package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// OrderExecutor submits order legs to a venue. Paper implementations accept
// unconditionally; a live implementation would route to the CLOB.
type OrderExecutor interface {
	Submit(ctx context.Context, orders []domain.Order) ([]domain.OrderResult, error)
}

// SplitExecutor performs CTF split/merge operations and reports the gas they
// cost. EstimateGasCostUSD is called ahead of planning so the profit math can
// price the transaction before committing to it.
type SplitExecutor interface {
	Execute(ctx context.Context, req domain.SplitRequest) (domain.SplitResult, error)
	EstimateGasCostUSD(ctx context.Context) float64
}
