// Package ledger holds the paper-trading cash/position/history state and the
// single-writer apply discipline around it.
//
// Cash accounting per strategy:
//
//	DirectDoubleBuy:  cash -= size × priceSum × (1 + feeRate)
//	                  position += size YES, += size NO
//	SplitThenSell:    cash -= gas + size          (gas, then collateral lock)
//	                  cash += size × priceSum × (1 − feeRate)   (both sells)
//	                  position net unchanged — the mint and the sells cancel
//
// For SplitThenSell the net cash effect equals size × grossEdge − costs;
// that equality is asserted in the tests since the sign of the position
// update is the step most prone to errors.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// State is the process-wide mutable ledger state. It has a single owner —
// the orchestration layer creates one instance and all mutation goes through
// PaperLedger.Apply. Never ambient, always passed explicitly.
type State struct {
	StartingCapital float64
	Cash            float64
	Positions       map[string]*domain.Position
	RealizedPnL     float64
	History         []domain.Fill // append-only
}

// NewState creates a fresh ledger state with the given starting capital.
func NewState(startingCapital float64) *State {
	return &State{
		StartingCapital: startingCapital,
		Cash:            startingCapital,
		Positions:       make(map[string]*domain.Position),
	}
}

// position returns the market's position, creating it lazily on first use.
func (s *State) position(marketID string) *domain.Position {
	pos, ok := s.Positions[marketID]
	if !ok {
		pos = &domain.Position{MarketID: marketID}
		s.Positions[marketID] = pos
	}
	return pos
}

// Stats aggregates the run into a LedgerStats snapshot.
func (s *State) Stats() domain.LedgerStats {
	st := domain.LedgerStats{
		StartingCapital: s.StartingCapital,
		Cash:            s.Cash,
		RealizedPnL:     s.RealizedPnL,
		TotalFills:      len(s.History),
	}

	for _, pos := range s.Positions {
		st.UnrealizedPnL += pos.UnrealizedPnL()
		if pos.YesQty > 0 || pos.NoQty > 0 {
			st.OpenMarkets++
		}
	}

	settled := 0
	for _, f := range s.History {
		if f.Strategy != domain.SplitThenSell {
			continue
		}
		settled++
		if f.CashDelta > 0 {
			st.Wins++
		} else {
			st.Losses++
		}
	}
	if settled > 0 {
		st.WinRate = float64(st.Wins) / float64(settled) * 100
	}

	if s.StartingCapital > 0 {
		st.ReturnPct = (s.Cash + st.UnrealizedPnL - s.StartingCapital) / s.StartingCapital * 100
	}
	return st
}

// Config bounds what the ledger will accept.
type Config struct {
	// MaxPositionSize caps per-market YES or NO holdings, in sets.
	MaxPositionSize int64
}

// PaperLedger applies execution plans to a State as simulated fills.
// Apply is not safe for concurrent use — callers must serialize it (the
// engine funnels all applies through one stage for exactly this reason).
type PaperLedger struct {
	cfg   Config
	state *State
}

// New creates a ledger over the given state.
func New(cfg Config, state *State) *PaperLedger {
	if cfg.MaxPositionSize <= 0 {
		cfg.MaxPositionSize = 100
	}
	return &PaperLedger{cfg: cfg, state: state}
}

// State exposes the owned state for read-side consumers (stats, replay
// checks). Mutation still only happens through Apply.
func (l *PaperLedger) State() *State {
	return l.state
}

// Cash returns the current cash balance.
func (l *PaperLedger) Cash() float64 {
	return l.state.Cash
}

// Apply executes the plan against the ledger as one logical transaction:
// cash, the market's position and the trade history either all update
// together or none do. Rejections are typed and leave the state untouched.
func (l *PaperLedger) Apply(plan domain.ExecutionPlan) (domain.Fill, error) {
	if err := validate(plan); err != nil {
		return domain.Fill{}, err
	}

	fill := fillFromPlan(plan, uuid.New().String(), time.Now().UTC())

	if err := l.check(fill); err != nil {
		return domain.Fill{}, err
	}

	// Validated — from here every mutation succeeds unconditionally, so
	// the three-way update cannot be observed half-done.
	mutate(l.state, fill)
	return fill, nil
}

// validate rejects plans that should never have reached the ledger.
func validate(plan domain.ExecutionPlan) error {
	opp := plan.Opportunity
	if opp.YesPrice < 0 || opp.YesPrice > 1 || opp.NoPrice < 0 || opp.NoPrice > 1 {
		return fmt.Errorf("%w: price outside [0,1]: yes=%.4f no=%.4f",
			domain.ErrInvariantViolation, opp.YesPrice, opp.NoPrice)
	}
	if plan.Size <= 0 {
		return fmt.Errorf("%w: non-positive size %d", domain.ErrInvariantViolation, plan.Size)
	}
	switch plan.Strategy {
	case domain.DirectDoubleBuy, domain.SplitThenSell:
		return nil
	default:
		return fmt.Errorf("%w: unknown strategy %d", domain.ErrInvariantViolation, plan.Strategy)
	}
}

// check enforces capital and position limits against the would-be fill.
func (l *PaperLedger) check(fill domain.Fill) error {
	switch fill.Strategy {
	case domain.DirectDoubleBuy:
		debit := float64(fill.Size)*fill.PriceSum() + fill.Fees
		if debit > l.state.Cash {
			return fmt.Errorf("%w: need $%.2f, have $%.2f",
				domain.ErrInsufficientCapital, debit, l.state.Cash)
		}
		pos := l.state.Positions[fill.MarketID]
		var yes, no int64
		if pos != nil {
			yes, no = pos.YesQty, pos.NoQty
		}
		if yes+fill.Size > l.cfg.MaxPositionSize || no+fill.Size > l.cfg.MaxPositionSize {
			return fmt.Errorf("%w: %s would hold %d sets, limit %d",
				domain.ErrPositionLimitExceeded, fill.MarketID, yes+fill.Size, l.cfg.MaxPositionSize)
		}
	case domain.SplitThenSell:
		// Gas and the collateral lock are paid before the sell proceeds
		// arrive, so the upfront debit must be coverable on its own.
		upfront := fill.GasCost + float64(fill.Size)
		if upfront > l.state.Cash {
			return fmt.Errorf("%w: split needs $%.2f upfront, have $%.2f",
				domain.ErrInsufficientCapital, upfront, l.state.Cash)
		}
	}
	return nil
}

// fillFromPlan builds the immutable fill record for a validated plan.
func fillFromPlan(plan domain.ExecutionPlan, id string, at time.Time) domain.Fill {
	opp := plan.Opportunity
	f := domain.Fill{
		ID:         id,
		MarketID:   opp.MarketID,
		Strategy:   plan.Strategy,
		Size:       plan.Size,
		YesPrice:   opp.YesPrice,
		NoPrice:    opp.NoPrice,
		Fees:       plan.Costs.TradingFees,
		GasCost:    plan.Costs.GasCost,
		ExecutedAt: at,
	}
	f.CashDelta = cashDelta(f)
	return f
}

// cashDelta computes the fill's net effect on cash from its own fields,
// so replay needs nothing beyond the history.
func cashDelta(f domain.Fill) float64 {
	switch f.Strategy {
	case domain.DirectDoubleBuy:
		return -(float64(f.Size)*f.PriceSum() + f.Fees)
	case domain.SplitThenSell:
		proceeds := float64(f.Size)*f.PriceSum() - f.Fees
		return proceeds - float64(f.Size) - f.GasCost
	default:
		return 0
	}
}

// mutate applies a validated fill to the state. Shared by Apply and Replay
// so replay reproduces the final state by construction.
func mutate(s *State, f domain.Fill) {
	pos := s.position(f.MarketID)

	switch f.Strategy {
	case domain.DirectDoubleBuy:
		debit := float64(f.Size)*f.PriceSum() + f.Fees
		s.Cash -= debit
		pos.YesQty += f.Size
		pos.NoQty += f.Size
		pos.CostBasis += debit
	case domain.SplitThenSell:
		// Mint +size/+size then sell −size/−size: holdings net to zero,
		// only cash moves. The delta is realized immediately.
		delta := cashDelta(f)
		s.Cash += delta
		pos.RealizedPnL += delta
		s.RealizedPnL += delta
	}

	pos.Fills++
	s.History = append(s.History, f)
}

// Replay reconstructs a ledger state by applying the ordered fill history to
// a fresh state with the same starting capital. Given the history recorded
// by Apply, the result matches the live state exactly.
func Replay(startingCapital float64, history []domain.Fill) *State {
	s := NewState(startingCapital)
	for _, f := range history {
		mutate(s, f)
	}
	return s
}
