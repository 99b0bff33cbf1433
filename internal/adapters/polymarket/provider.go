package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const defaultMarketRefresh = 10 * time.Minute

// ProviderConfig tunes market discovery.
type ProviderConfig struct {
	// MarketRefresh is how long the discovered market list is reused
	// before re-fetching it. Books are fetched fresh every call.
	MarketRefresh time.Duration

	// MaxMarkets caps how many markets each snapshot fetch covers, 0 for
	// all. Discovery order is the venue's listing order.
	MaxMarkets int
}

// SnapshotProvider discovers active binary markets and turns their order
// books into price snapshots. Not safe for concurrent use; the engine calls
// it from a single goroutine.
type SnapshotProvider struct {
	client *Client
	cfg    ProviderConfig

	markets     []Market
	refreshedAt time.Time
}

// NewSnapshotProvider creates a provider over the given client.
func NewSnapshotProvider(client *Client, cfg ProviderConfig) *SnapshotProvider {
	if cfg.MarketRefresh <= 0 {
		cfg.MarketRefresh = defaultMarketRefresh
	}
	return &SnapshotProvider{client: client, cfg: cfg}
}

// Snapshots returns one snapshot per tracked market, in discovery order.
// Markets whose books are missing or one-sided come back with unavailable
// quotes rather than being dropped, so the caller sees every market it asked
// about.
func (p *SnapshotProvider) Snapshots(ctx context.Context) ([]domain.PriceSnapshot, error) {
	markets, err := p.trackedMarkets(ctx)
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, nil
	}

	tokenIDs := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		tokenIDs = append(tokenIDs, m.YesTokenID, m.NoTokenID)
	}

	books, err := p.client.fetchBooks(ctx, tokenIDs)
	if err != nil {
		return nil, fmt.Errorf("polymarket.Snapshots: %w", err)
	}

	now := time.Now().UTC()
	snaps := make([]domain.PriceSnapshot, len(markets))
	for i, m := range markets {
		snaps[i] = snapshotFromBooks(m, books, now)
	}
	return snaps, nil
}

// trackedMarkets returns the cached market list, refreshing it when stale.
// A failed refresh falls back to the previous list instead of failing the
// cycle.
func (p *SnapshotProvider) trackedMarkets(ctx context.Context) ([]Market, error) {
	if p.markets != nil && time.Since(p.refreshedAt) < p.cfg.MarketRefresh {
		return p.markets, nil
	}

	markets, err := p.client.FetchMarkets(ctx)
	if err != nil {
		if p.markets != nil {
			slog.Warn("market refresh failed, reusing previous list",
				"markets", len(p.markets), "err", err)
			return p.markets, nil
		}
		return nil, fmt.Errorf("polymarket.trackedMarkets: %w", err)
	}

	if p.cfg.MaxMarkets > 0 && len(markets) > p.cfg.MaxMarkets {
		markets = markets[:p.cfg.MaxMarkets]
	}

	p.markets = markets
	p.refreshedAt = time.Now()
	return p.markets, nil
}
