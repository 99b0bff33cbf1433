package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyarb/internal/domain"
	"github.com/alejandrodnm/polyarb/internal/ledger"
)

type fakeProvider struct {
	snaps []domain.PriceSnapshot
	err   error
}

func (f *fakeProvider) Snapshots(context.Context) ([]domain.PriceSnapshot, error) {
	return f.snaps, f.err
}

type fakeSplitter struct {
	gas  float64
	err  error
	reqs []domain.SplitRequest
}

func (f *fakeSplitter) Execute(_ context.Context, req domain.SplitRequest) (domain.SplitResult, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return domain.SplitResult{}, f.err
	}
	return domain.SplitResult{GasCostUSD: f.gas}, nil
}

func (f *fakeSplitter) EstimateGasCostUSD(context.Context) float64 { return f.gas }

type fakeStorage struct {
	saved []domain.Fill
	err   error
}

func (f *fakeStorage) SaveFill(_ context.Context, fill domain.Fill) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, fill)
	return nil
}

func (f *fakeStorage) LoadFills(context.Context) ([]domain.Fill, error) { return f.saved, nil }
func (f *fakeStorage) Close() error                                     { return nil }

func snap(marketID string, yes, no float64) domain.PriceSnapshot {
	return domain.PriceSnapshot{
		MarketID:  marketID,
		Yes:       domain.QuoteOf(yes),
		No:        domain.QuoteOf(no),
		Timestamp: time.Now().UTC(),
	}
}

func newTestEngine(capital float64, provider *fakeProvider, splits *fakeSplitter, store *fakeStorage) (*Engine, *ledger.PaperLedger) {
	state := ledger.NewState(capital)
	book := ledger.New(ledger.Config{MaxPositionSize: 100}, state)

	deps := Deps{
		Detector: domain.NewDetector(domain.DetectorConfig{}),
		Planner:  domain.NewPlanner(domain.PlannerConfig{MaxPositionSize: 100, GasCostEstimate: 0.50}),
		Prices:   provider,
		Ledger:   book,
	}
	if splits != nil {
		deps.Splits = splits
	}
	if store != nil {
		deps.Storage = store
	}
	return New(Config{Workers: 4}, deps), book
}

func TestRunOnce_PreservesSnapshotOrder(t *testing.T) {
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xfair", 0.50, 0.50),    // no deviation
		snap("0xunder", 0.45, 0.50),   // plan + fill
		snap("0xshallow", 0.49, 0.50), // deviation below confidence gate
		{MarketID: "0xhalf", Yes: domain.QuoteOf(0.5), No: domain.NoQuote(), Timestamp: time.Now()},
	}}

	eng, _ := newTestEngine(10_000, provider, nil, nil)
	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 4)

	assert.Equal(t, "0xfair", decisions[0].Snapshot.MarketID)
	assert.Equal(t, domain.OutcomeNoSignal, decisions[0].Outcome)

	assert.Equal(t, "0xunder", decisions[1].Snapshot.MarketID)
	assert.Equal(t, domain.OutcomeFilled, decisions[1].Outcome)
	require.NotNil(t, decisions[1].Fill)

	// deviation 0.01 → confidence 0.2, below the 0.8 gate
	assert.Equal(t, "0xshallow", decisions[2].Snapshot.MarketID)
	assert.Equal(t, domain.OutcomeRejectedByPlanner, decisions[2].Outcome)
	require.NotNil(t, decisions[2].Opportunity)
	assert.Nil(t, decisions[2].Plan)

	assert.Equal(t, "0xhalf", decisions[3].Snapshot.MarketID)
	assert.Equal(t, domain.OutcomeNoSignal, decisions[3].Outcome)
}

func TestRunOnce_LedgerRejectsWhenCapitalDrains(t *testing.T) {
	// Both markets are planned against the cash at cycle start; the serial
	// apply stage bounces the second when the first drains the balance.
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xa", 0.45, 0.50),
		snap("0xb", 0.44, 0.49),
	}}

	eng, book := newTestEngine(120, provider, nil, nil)
	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	assert.Equal(t, domain.OutcomeFilled, decisions[0].Outcome)
	assert.Equal(t, domain.OutcomeRejectedByLedger, decisions[1].Outcome)
	assert.ErrorIs(t, decisions[1].Err, domain.ErrInsufficientCapital)

	// only the first fill moved cash
	assert.Len(t, book.State().History, 1)
}

func TestRunOnce_SplitExecutedAndRealGasRecorded(t *testing.T) {
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xover", 0.55, 0.52),
	}}
	splits := &fakeSplitter{gas: 0.80} // planner estimated 0.50

	eng, book := newTestEngine(10_000, provider, splits, nil)
	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	require.Equal(t, domain.OutcomeFilled, decisions[0].Outcome)
	require.Len(t, splits.reqs, 1)
	assert.Equal(t, domain.KindSplit, splits.reqs[0].Kind)
	assert.Equal(t, int64(100), splits.reqs[0].Sets)

	// the fill carries the gas actually paid, not the planning estimate
	require.Len(t, book.State().History, 1)
	assert.InDelta(t, 0.80, book.State().History[0].GasCost, 1e-9)
	assert.InDelta(t, 100*0.07-0.80, book.State().History[0].CashDelta, 1e-6)
}

func TestRunOnce_SplitFailureRejectsPlan(t *testing.T) {
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xover", 0.55, 0.52),
	}}
	splits := &fakeSplitter{err: errors.New("rpc timeout")}

	eng, book := newTestEngine(10_000, provider, splits, nil)
	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, decisions, 1)
	assert.Equal(t, domain.OutcomeRejectedByLedger, decisions[0].Outcome)
	require.Error(t, decisions[0].Err)
	assert.Empty(t, book.State().History)
	assert.InDelta(t, 10_000, book.Cash(), 1e-9)
}

func TestRunOnce_PersistsFills(t *testing.T) {
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xunder", 0.45, 0.50),
	}}
	store := &fakeStorage{}

	eng, book := newTestEngine(10_000, provider, nil, store)
	_, err := eng.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, book.State().History[0].ID, store.saved[0].ID)
}

func TestRunOnce_StorageFailureKeepsFill(t *testing.T) {
	provider := &fakeProvider{snaps: []domain.PriceSnapshot{
		snap("0xunder", 0.45, 0.50),
	}}
	store := &fakeStorage{err: errors.New("disk full")}

	eng, book := newTestEngine(10_000, provider, nil, store)
	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)

	// in-memory ledger stays authoritative
	assert.Equal(t, domain.OutcomeFilled, decisions[0].Outcome)
	assert.Len(t, book.State().History, 1)
}

func TestRunOnce_ProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}

	eng, _ := newTestEngine(10_000, provider, nil, nil)
	_, err := eng.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRunOnce_EmptySnapshots(t *testing.T) {
	eng, _ := newTestEngine(10_000, &fakeProvider{}, nil, nil)

	decisions, err := eng.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
