package engine

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// planAll runs detection and planning for every snapshot in parallel and
// returns one decision per snapshot in the input order. Both stages are pure;
// results land in a pre-indexed slice so no ordering is lost to scheduling.
func (e *Engine) planAll(ctx context.Context, snaps []domain.PriceSnapshot, now time.Time, capital float64) []domain.Decision {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}

	decisions := make([]domain.Decision, len(snaps))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, snap := range snaps {
		g.Go(func() error {
			decisions[i] = e.decide(snap, now, capital)
			return nil
		})
	}
	g.Wait() // workers never return errors; rejections live in the decisions

	return decisions
}

// decide runs the pure part of the pipeline for one snapshot.
func (e *Engine) decide(snap domain.PriceSnapshot, now time.Time, capital float64) domain.Decision {
	d := domain.Decision{Snapshot: snap, Outcome: domain.OutcomeNoSignal}

	opp := e.detector.Detect(snap, now)
	if opp == nil {
		return d
	}
	d.Opportunity = opp

	plan := e.planner.Plan(*opp, capital)
	if plan == nil {
		d.Outcome = domain.OutcomeRejectedByPlanner
		return d
	}
	d.Plan = plan
	d.Outcome = domain.OutcomeRejectedByLedger // promoted to Filled by apply
	return d
}
