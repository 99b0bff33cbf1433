package domain

import "math"

// Strategy is the execution path for an opportunity. The original abstract
// strategy hierarchy is collapsed into a tagged variant dispatched by the
// Planner — adding a strategy means adding a variant plus a planning branch.
type Strategy int

const (
	// DirectDoubleBuy buys both legs off-chain; the CLOB mints the sets.
	// Costs are trading fees only.
	DirectDoubleBuy Strategy = iota
	// SplitThenSell locks collateral on-chain to mint sets, then sells both
	// legs. Costs include gas for the split plus trading fees on the sells.
	SplitThenSell
)

func (s Strategy) String() string {
	switch s {
	case DirectDoubleBuy:
		return "DIRECT_DOUBLE_BUY"
	case SplitThenSell:
		return "SPLIT_THEN_SELL"
	default:
		return "UNKNOWN"
	}
}

// CostComponents breaks out the expected costs of a plan.
type CostComponents struct {
	TradingFees float64
	GasCost     float64 // zero for DirectDoubleBuy
}

// Total returns fees + gas.
func (c CostComponents) Total() float64 {
	return c.TradingFees + c.GasCost
}

// ExecutionPlan is a fully-parameterized, symmetric complete-set trade.
// Size is in complete sets (always equal YES and NO quantity — unequal legs
// would leave a naked directional position, not an arbitrage).
type ExecutionPlan struct {
	Opportunity       ArbitrageOpportunity
	Strategy          Strategy
	Size              int64
	Costs             CostComponents
	NetExpectedProfit float64
}

// Orders expands the plan into its two symmetric legs.
func (p ExecutionPlan) Orders() []Order {
	side := SideBuy
	if p.Strategy == SplitThenSell {
		side = SideSell
	}
	return []Order{
		{MarketID: p.Opportunity.MarketID, Outcome: OutcomeYes, Side: side, Price: p.Opportunity.YesPrice, Sets: p.Size},
		{MarketID: p.Opportunity.MarketID, Outcome: OutcomeNo, Side: side, Price: p.Opportunity.NoPrice, Sets: p.Size},
	}
}

// PlannerConfig holds the planning tunables. FeeRate is a live parameter:
// the venue charges 0% today but charged 2% historically, so the math keeps
// it in every formula rather than hardcoding zero.
type PlannerConfig struct {
	MinProfitThreshold float64
	MinConfidence      float64
	FeeRate            float64
	MaxPositionSize    int64
	GasCostEstimate    float64 // absolute USD per split transaction
}

func (c PlannerConfig) withDefaults() PlannerConfig {
	if c.MinProfitThreshold <= 0 {
		c.MinProfitThreshold = 0.01
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.8
	}
	if c.MaxPositionSize <= 0 {
		c.MaxPositionSize = 100
	}
	if c.GasCostEstimate <= 0 {
		c.GasCostEstimate = 0.50
	}
	return c
}

// Planner turns a scored opportunity into an execution plan, or rejects it.
// Pure and deterministic: identical (opportunity, capital, config) always
// produce the identical plan.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner creates a Planner with the given config.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{cfg: cfg.withDefaults()}
}

// Plan sizes and prices the trade for the opportunity against the available
// capital. Returns nil when the opportunity does not clear the confidence
// gate, the size rounds to zero, or the net expected profit after all cost
// components falls below the minimum threshold.
func (p *Planner) Plan(opp ArbitrageOpportunity, availableCapital float64) *ExecutionPlan {
	if opp.Confidence < p.cfg.MinConfidence {
		return nil
	}

	switch opp.Direction {
	case Underpriced:
		return p.planDirectDoubleBuy(opp, availableCapital)
	case Overpriced:
		return p.planSplitThenSell(opp, availableCapital)
	default:
		return nil
	}
}

// planDirectDoubleBuy sizes a buy of both legs. Each set costs
// priceSum × (1 + feeRate) in cash, so capital bounds the size through the
// fee-inclusive cost — a plan the ledger would bounce for a fee it knew
// about is a planner bug, not a ledger rejection.
func (p *Planner) planDirectDoubleBuy(opp ArbitrageOpportunity, capital float64) *ExecutionPlan {
	costPerSet := opp.PriceSum * (1 + p.cfg.FeeRate)
	if costPerSet <= 0 {
		return nil
	}

	size := boundSize(capital/costPerSet, p.cfg.MaxPositionSize)
	if size <= 0 {
		return nil
	}

	fees := float64(size) * opp.PriceSum * p.cfg.FeeRate
	costs := CostComponents{TradingFees: fees}
	net := float64(size)*opp.GrossEdge - costs.Total()
	if net < p.cfg.MinProfitThreshold {
		return nil
	}

	return &ExecutionPlan{
		Opportunity:       opp,
		Strategy:          DirectDoubleBuy,
		Size:              size,
		Costs:             costs,
		NetExpectedProfit: net,
	}
}

// planSplitThenSell sizes a split of collateral followed by selling both
// legs. The split locks $1 per set up front and the gas cost is paid once,
// so both bound the size; gas is subtracted from the edge before the
// threshold check — a positive edge smaller than gas is a loss, not a plan.
func (p *Planner) planSplitThenSell(opp ArbitrageOpportunity, capital float64) *ExecutionPlan {
	gas := p.cfg.GasCostEstimate
	if capital <= gas {
		return nil
	}

	size := boundSize(capital-gas, p.cfg.MaxPositionSize)
	if size <= 0 {
		return nil
	}

	fees := float64(size) * opp.PriceSum * p.cfg.FeeRate
	costs := CostComponents{TradingFees: fees, GasCost: gas}
	net := float64(size)*opp.GrossEdge - costs.Total()
	if net < p.cfg.MinProfitThreshold {
		return nil
	}

	return &ExecutionPlan{
		Opportunity:       opp,
		Strategy:          SplitThenSell,
		Size:              size,
		Costs:             costs,
		NetExpectedProfit: net,
	}
}

// boundSize floors the raw capital-derived size and caps it at maxSets.
func boundSize(raw float64, maxSets int64) int64 {
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	size := int64(math.Floor(raw))
	if size > maxSets {
		size = maxSets
	}
	return size
}
