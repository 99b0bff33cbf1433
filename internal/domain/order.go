package domain

// Outcome names one of the two sides of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// OrderSide is the direction of an order leg.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// Order is one leg of an execution plan, ready for an order execution sink.
// Sets is the number of complete sets the leg covers; both legs of a plan
// always carry the same Sets.
type Order struct {
	MarketID string
	Outcome  Outcome
	Side     OrderSide
	Price    float64
	Sets     int64
}

// OrderResult is the per-order verdict from an execution sink.
type OrderResult struct {
	Order    Order
	Accepted bool
	Reason   string
}

// SplitKind selects the on-chain CTF operation.
type SplitKind string

const (
	KindSplit SplitKind = "SPLIT" // collateral -> YES + NO
	KindMerge SplitKind = "MERGE" // YES + NO -> collateral
)

// SplitRequest asks the on-chain sink to split or merge complete sets.
type SplitRequest struct {
	Kind     SplitKind
	MarketID string
	Sets     int64
}

// SplitResult reports a successful split/merge and its realized gas cost.
type SplitResult struct {
	GasCostUSD float64
	TxHash     string // empty in simulation
}
