package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// Notifier reports the decisions of one cycle together with the ledger
// stats after applying them.
type Notifier interface {
	Notify(ctx context.Context, decisions []domain.Decision, stats domain.LedgerStats) error
}
