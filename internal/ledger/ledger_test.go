package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

func directPlan(size int64, yes, no, fees float64) domain.ExecutionPlan {
	sum := yes + no
	return domain.ExecutionPlan{
		Opportunity: domain.ArbitrageOpportunity{
			MarketID:   "0xmkt",
			Direction:  domain.Underpriced,
			YesPrice:   yes,
			NoPrice:    no,
			PriceSum:   sum,
			Deviation:  1 - sum,
			GrossEdge:  1 - sum,
			Confidence: 1,
			DetectedAt: time.Now(),
		},
		Strategy:          domain.DirectDoubleBuy,
		Size:              size,
		Costs:             domain.CostComponents{TradingFees: fees},
		NetExpectedProfit: float64(size)*(1-sum) - fees,
	}
}

func splitPlan(size int64, yes, no, fees, gas float64) domain.ExecutionPlan {
	sum := yes + no
	return domain.ExecutionPlan{
		Opportunity: domain.ArbitrageOpportunity{
			MarketID:   "0xmkt",
			Direction:  domain.Overpriced,
			YesPrice:   yes,
			NoPrice:    no,
			PriceSum:   sum,
			Deviation:  sum - 1,
			GrossEdge:  sum - 1,
			Confidence: 1,
			DetectedAt: time.Now(),
		},
		Strategy:          domain.SplitThenSell,
		Size:              size,
		Costs:             domain.CostComponents{TradingFees: fees, GasCost: gas},
		NetExpectedProfit: float64(size)*(sum-1) - fees - gas,
	}
}

func TestApply_DirectDoubleBuy(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 100}, state)

	fill, err := l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.NoError(t, err)

	// cash down by 100 × 0.95
	assert.InDelta(t, 10_000-95, state.Cash, 1e-9)
	assert.InDelta(t, -95, fill.CashDelta, 1e-9)
	assert.NotEmpty(t, fill.ID)

	pos := state.Positions["0xmkt"]
	require.NotNil(t, pos)
	assert.Equal(t, int64(100), pos.YesQty)
	assert.Equal(t, int64(100), pos.NoQty)
	assert.InDelta(t, 95, pos.CostBasis, 1e-9)
	// 100 sets redeemable at $1 against $95 paid
	assert.InDelta(t, 5, pos.UnrealizedPnL(), 1e-9)

	require.Len(t, state.History, 1)
	assert.Equal(t, fill.ID, state.History[0].ID)
}

func TestApply_SplitThenSell_NetEqualsEdgeMinusCosts(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 100}, state)

	fill, err := l.Apply(splitPlan(100, 0.55, 0.52, 0, 0.50))
	require.NoError(t, err)

	// net cash effect = size × grossEdge − costs = 100×0.07 − 0.50
	assert.InDelta(t, 6.50, fill.CashDelta, 1e-9)
	assert.InDelta(t, 10_006.50, state.Cash, 1e-9)
	assert.InDelta(t, 6.50, state.RealizedPnL, 1e-9)

	// mint and sell cancel: no open holdings
	pos := state.Positions["0xmkt"]
	require.NotNil(t, pos)
	assert.Equal(t, int64(0), pos.YesQty)
	assert.Equal(t, int64(0), pos.NoQty)
	assert.InDelta(t, 6.50, pos.RealizedPnL, 1e-9)
}

func TestApply_SplitThenSell_WithFees(t *testing.T) {
	state := NewState(1_000)
	l := New(Config{MaxPositionSize: 100}, state)

	plan := splitPlan(50, 0.55, 0.52, 1.07, 0.50)
	fill, err := l.Apply(plan)
	require.NoError(t, err)

	// 50 × 0.07 − 1.07 − 0.50
	assert.InDelta(t, 1.93, fill.CashDelta, 1e-9)
	assert.InDelta(t, plan.NetExpectedProfit, fill.CashDelta, 1e-9)
}

func TestApply_InsufficientCapital(t *testing.T) {
	state := NewState(50)
	l := New(Config{MaxPositionSize: 1000}, state)

	// needs 100 × 0.95 = $95
	_, err := l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrInsufficientCapital)

	// split upfront = gas + size = 0.50 + 100 > 50
	_, err = l.Apply(splitPlan(100, 0.55, 0.52, 0, 0.50))
	require.ErrorIs(t, err, domain.ErrInsufficientCapital)

	// rejection left nothing behind
	assert.InDelta(t, 50, state.Cash, 1e-9)
	assert.Empty(t, state.History)
	assert.NotContains(t, state.Positions, "0xmkt")
}

func TestApply_PositionLimit(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 150}, state)

	_, err := l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.NoError(t, err)

	// another 100 sets would hold 200 > 150
	_, err = l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrPositionLimitExceeded)

	// state unchanged by the rejection
	assert.Equal(t, int64(100), state.Positions["0xmkt"].YesQty)
	assert.Len(t, state.History, 1)
}

func TestApply_RejectsInvalidPlans(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 100}, state)

	_, err := l.Apply(directPlan(0, 0.45, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = l.Apply(directPlan(-5, 0.45, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = l.Apply(directPlan(10, 1.2, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	assert.Empty(t, state.History)
	assert.InDelta(t, 10_000, state.Cash, 1e-9)
}

func TestApply_AtomicOnRejection(t *testing.T) {
	state := NewState(200)
	l := New(Config{MaxPositionSize: 1000}, state)

	_, err := l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.NoError(t, err)
	cashAfterFirst := state.Cash

	// cash is now 105; 120 sets cost 114 and fail only the capital check
	_, err = l.Apply(directPlan(120, 0.45, 0.50, 0))
	require.ErrorIs(t, err, domain.ErrInsufficientCapital)

	assert.Equal(t, cashAfterFirst, state.Cash)
	assert.Len(t, state.History, 1)
	assert.Equal(t, int64(100), state.Positions["0xmkt"].YesQty)
	assert.Equal(t, 1, state.Positions["0xmkt"].Fills)
}

func TestReplay_ReproducesLiveState(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 500}, state)

	_, err := l.Apply(directPlan(100, 0.45, 0.50, 0))
	require.NoError(t, err)
	_, err = l.Apply(splitPlan(80, 0.55, 0.52, 0.5, 0.42))
	require.NoError(t, err)
	_, err = l.Apply(directPlan(50, 0.48, 0.49, 0.2))
	require.NoError(t, err)

	replayed := Replay(10_000, state.History)

	assert.InDelta(t, state.Cash, replayed.Cash, 1e-9)
	assert.InDelta(t, state.RealizedPnL, replayed.RealizedPnL, 1e-9)
	assert.Equal(t, len(state.History), len(replayed.History))
	require.Len(t, replayed.Positions, 1)

	live := state.Positions["0xmkt"]
	got := replayed.Positions["0xmkt"]
	assert.Equal(t, live.YesQty, got.YesQty)
	assert.Equal(t, live.NoQty, got.NoQty)
	assert.InDelta(t, live.CostBasis, got.CostBasis, 1e-9)
	assert.InDelta(t, live.RealizedPnL, got.RealizedPnL, 1e-9)
	assert.Equal(t, live.Fills, got.Fills)
}

func TestStats(t *testing.T) {
	state := NewState(10_000)
	l := New(Config{MaxPositionSize: 500}, state)

	_, err := l.Apply(directPlan(100, 0.45, 0.50, 0)) // open position, +5 unrealized
	require.NoError(t, err)
	_, err = l.Apply(splitPlan(100, 0.55, 0.52, 0, 0.50)) // +6.50 realized, a win
	require.NoError(t, err)

	stats := state.Stats()

	assert.InDelta(t, 10_000, stats.StartingCapital, 1e-9)
	assert.InDelta(t, 10_000-95+6.50, stats.Cash, 1e-9)
	assert.InDelta(t, 6.50, stats.RealizedPnL, 1e-9)
	assert.InDelta(t, 5.0, stats.UnrealizedPnL, 1e-9)
	assert.Equal(t, 2, stats.TotalFills)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.InDelta(t, 100.0, stats.WinRate, 1e-9)
	assert.Equal(t, 1, stats.OpenMarkets)
	// (cash + unrealized − starting) / starting = (9911.5 + 5 − 10000)/10000
	assert.InDelta(t, 100*(stats.Cash+5-10_000)/10_000, stats.ReturnPct, 1e-9)
}
