// Package engine orchestrates the detect -> plan -> apply pipeline over the
// paper ledger.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ledger"
	"github.com/alejandrodnm/polyarb/internal/ports"
)

const defaultCycleInterval = 30 * time.Second

// Config holds the engine tunables.
type Config struct {
	// CycleInterval is the pause between cycles in Run.
	CycleInterval time.Duration

	// Workers bounds the parallel detect+plan stage. <= 0 means one
	// worker per snapshot.
	Workers int

	// SubmitOrders routes plan legs through the order executor before the
	// ledger apply. Off by default — the paper exchange accepts everything,
	// so the round trip only matters when wiring a live executor.
	SubmitOrders bool
}

// Engine runs detection cycles: fetch snapshots, score and plan them in
// parallel, then apply the surviving plans to the ledger one at a time.
// The ledger is the only mutable state and only the serial apply stage
// touches it.
type Engine struct {
	cfg      Config
	detector *domain.Detector
	planner  *domain.Planner
	prices   ports.SnapshotProvider
	ledger   *ledger.PaperLedger
	orders   ports.OrderExecutor
	splits   ports.SplitExecutor
	storage  ports.LedgerStorage
	notifier ports.Notifier
}

// Deps are the collaborators the engine drives. Orders, Splits, Storage and
// Notifier may be nil; the corresponding step is skipped.
type Deps struct {
	Detector *domain.Detector
	Planner  *domain.Planner
	Prices   ports.SnapshotProvider
	Ledger   *ledger.PaperLedger
	Orders   ports.OrderExecutor
	Splits   ports.SplitExecutor
	Storage  ports.LedgerStorage
	Notifier ports.Notifier
}

// New creates an engine.
func New(cfg Config, deps Deps) *Engine {
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = defaultCycleInterval
	}
	return &Engine{
		cfg:      cfg,
		detector: deps.Detector,
		planner:  deps.Planner,
		prices:   deps.Prices,
		ledger:   deps.Ledger,
		orders:   deps.Orders,
		splits:   deps.Splits,
		storage:  deps.Storage,
		notifier: deps.Notifier,
	}
}

// Run executes cycles until the context is cancelled. The first cycle fires
// immediately; a failed cycle is logged and the loop keeps going.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.CycleInterval,
		"cash", e.ledger.Cash(),
	)

	if err := e.runCycle(ctx); err != nil {
		slog.Error("cycle failed", "err", err)
	}

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped")
			return nil
		case <-ticker.C:
			if err := e.runCycle(ctx); err != nil {
				slog.Error("cycle failed", "err", err)
			}
		}
	}
}

// runCycle executes one cycle and notifies the results.
func (e *Engine) runCycle(ctx context.Context) error {
	start := time.Now()

	decisions, err := e.RunOnce(ctx)
	if err != nil {
		return err
	}

	stats := e.ledger.State().Stats()
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, decisions, stats); err != nil {
			slog.Warn("notify failed", "err", err)
		}
	}

	filled := 0
	for _, d := range decisions {
		if d.Outcome == domain.OutcomeFilled {
			filled++
		}
	}
	slog.Info("cycle complete",
		"markets", len(decisions),
		"fills", filled,
		"cash", stats.Cash,
		"realized_pnl", stats.RealizedPnL,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// RunOnce executes exactly one cycle and returns one decision per snapshot,
// in snapshot order.
func (e *Engine) RunOnce(ctx context.Context) ([]domain.Decision, error) {
	snaps, err := e.prices.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: fetch snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	// Detection and planning are pure, so they fan out freely. Every plan
	// is sized against the cash at cycle start; the serial apply stage
	// below re-checks against actual cash, so later plans in the cycle can
	// still bounce when earlier ones drained the balance.
	now := time.Now().UTC()
	decisions := e.planAll(ctx, snaps, now, e.ledger.Cash())

	for i := range decisions {
		if decisions[i].Plan == nil {
			continue
		}
		e.apply(ctx, &decisions[i])
	}

	return decisions, nil
}

// apply runs the serial execution stage for one planned decision: split (if
// the strategy needs it), order submission, ledger apply, persistence.
func (e *Engine) apply(ctx context.Context, d *domain.Decision) {
	plan := *d.Plan

	if plan.Strategy == domain.SplitThenSell && e.splits != nil {
		res, err := e.splits.Execute(ctx, domain.SplitRequest{
			Kind:     domain.KindSplit,
			MarketID: plan.Opportunity.MarketID,
			Sets:     plan.Size,
		})
		if err != nil {
			d.Outcome = domain.OutcomeRejectedByLedger
			d.Err = fmt.Errorf("engine.apply: split: %w", err)
			slog.Warn("split failed",
				"market", plan.Opportunity.MarketID, "err", err)
			return
		}
		// Substitute the gas actually paid for the planning estimate so
		// the fill records real costs. Profit is recomputed off the same
		// gross edge; a jump in gas can turn the plan unprofitable, but
		// the collateral is already locked, so the trade completes and
		// the ledger records the worse number.
		plan.Costs.GasCost = res.GasCostUSD
		plan.NetExpectedProfit = float64(plan.Size)*plan.Opportunity.GrossEdge - plan.Costs.Total()
	}

	if e.cfg.SubmitOrders && e.orders != nil {
		results, err := e.orders.Submit(ctx, plan.Orders())
		if err != nil {
			d.Outcome = domain.OutcomeRejectedByLedger
			d.Err = fmt.Errorf("engine.apply: submit: %w", err)
			return
		}
		for _, r := range results {
			if !r.Accepted {
				d.Outcome = domain.OutcomeRejectedByLedger
				d.Err = fmt.Errorf("engine.apply: %s %s leg rejected: %s",
					r.Order.Side, r.Order.Outcome, r.Reason)
				return
			}
		}
	}

	fill, err := e.ledger.Apply(plan)
	if err != nil {
		d.Outcome = domain.OutcomeRejectedByLedger
		d.Err = err
		if !errors.Is(err, domain.ErrInsufficientCapital) &&
			!errors.Is(err, domain.ErrPositionLimitExceeded) {
			slog.Warn("ledger rejected plan",
				"market", plan.Opportunity.MarketID, "err", err)
		}
		return
	}

	d.Outcome = domain.OutcomeFilled
	d.Fill = &fill

	if e.storage != nil {
		if err := e.storage.SaveFill(ctx, fill); err != nil {
			// The in-memory ledger stays authoritative; persistence catches
			// up on the next fill or not at all.
			slog.Warn("persist fill failed", "fill_id", fill.ID, "err", err)
		}
	}
}
