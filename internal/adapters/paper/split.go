package paper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// GasSource prices one split/merge transaction in USD.
type GasSource interface {
	EstimateGasCostUSD(ctx context.Context) float64
}

// fixedGas is the estimator used when no live source is wired.
type fixedGas float64

func (f fixedGas) EstimateGasCostUSD(context.Context) float64 { return float64(f) }

// Splitter simulates CTF split/merge operations. Gas is charged at the
// source's current estimate; nothing is broadcast, so TxHash stays empty.
type Splitter struct {
	gas GasSource
}

// NewSplitter creates a splitter over the given gas source. A nil source
// falls back to a fixed estimate.
func NewSplitter(gas GasSource, fallbackUSD float64) *Splitter {
	if gas == nil {
		if fallbackUSD <= 0 {
			fallbackUSD = 0.50
		}
		gas = fixedGas(fallbackUSD)
	}
	return &Splitter{gas: gas}
}

// Execute simulates the requested split or merge.
func (s *Splitter) Execute(ctx context.Context, req domain.SplitRequest) (domain.SplitResult, error) {
	if req.Sets <= 0 {
		return domain.SplitResult{}, fmt.Errorf("paper.Execute: non-positive sets %d", req.Sets)
	}
	if err := ctx.Err(); err != nil {
		return domain.SplitResult{}, fmt.Errorf("paper.Execute: %w", err)
	}

	gas := s.gas.EstimateGasCostUSD(ctx)
	slog.Debug("paper split",
		"kind", req.Kind,
		"market", req.MarketID,
		"sets", req.Sets,
		"gas_usd", gas,
	)
	return domain.SplitResult{GasCostUSD: gas}, nil
}

// EstimateGasCostUSD exposes the underlying source so planners can price
// the transaction before committing to it.
func (s *Splitter) EstimateGasCostUSD(ctx context.Context) float64 {
	return s.gas.EstimateGasCostUSD(ctx)
}
