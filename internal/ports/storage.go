package ports

import (
	"context"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// LedgerStorage persists the append-only fill history. LoadFills must return
// fills in execution order so the ledger can be replayed from them.
type LedgerStorage interface {
	SaveFill(ctx context.Context, fill domain.Fill) error
	LoadFills(ctx context.Context) ([]domain.Fill, error)
	Close() error
}
