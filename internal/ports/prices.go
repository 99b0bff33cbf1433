// Package ports defines the interfaces the engine depends on. Adapters
// implement them against real services; tests implement them with fakes.
package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// SnapshotProvider fetches the current price snapshots for the tracked
// markets. The returned slice order is preserved end to end — decisions,
// fills and notifications come out in the same order the snapshots go in.
type SnapshotProvider interface {
	Snapshots(ctx context.Context) ([]domain.PriceSnapshot, error)
}
