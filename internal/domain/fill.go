package domain

import "time"

// Fill is the record of one applied execution plan. Fills are immutable once
// appended to the ledger history; the ordered fill sequence is the sole
// source of truth for realized P&L and must allow exact replay of the final
// ledger state from the starting capital.
type Fill struct {
	ID         string
	MarketID   string
	Strategy   Strategy
	Size       int64 // complete sets
	YesPrice   float64
	NoPrice    float64
	Fees       float64
	GasCost    float64
	CashDelta  float64 // net effect on the cash balance
	ExecutedAt time.Time
}

// PriceSum returns the yes+no sum the fill executed at.
func (f Fill) PriceSum() float64 {
	return f.YesPrice + f.NoPrice
}

// Position is the per-market holding state. Created lazily on first fill,
// never deleted — closed positions stay at zero quantity with their P&L.
type Position struct {
	MarketID    string
	YesQty      int64
	NoQty       int64
	CostBasis   float64 // cash paid for held sets, fees included
	RealizedPnL float64 // cash-settled profit from split-then-sell trades
	Fills       int
}

// CompleteSets returns the number of sets the position can redeem at $1.
func (p Position) CompleteSets() int64 {
	if p.YesQty < p.NoQty {
		return p.YesQty
	}
	return p.NoQty
}

// UnrealizedPnL values held complete sets at their $1 redemption against
// the cash paid for them.
func (p Position) UnrealizedPnL() float64 {
	return float64(p.CompleteSets()) - p.CostBasis
}

// LedgerStats is the aggregate view of a paper trading run.
type LedgerStats struct {
	StartingCapital float64
	Cash            float64
	RealizedPnL     float64
	UnrealizedPnL   float64
	TotalFills      int
	Wins            int
	Losses          int
	WinRate         float64 // percent of cash-settled fills with positive realized P&L
	OpenMarkets     int
	ReturnPct       float64 // (cash + unrealized - starting) / starting × 100
}
