package domain

import "time"

// Direction classifies which side of the $1.00 invariant the market sits on.
type Direction int

const (
	// Underpriced: yes + no < 1.0 — buy both legs, redeem at $1.
	Underpriced Direction = iota
	// Overpriced: yes + no > 1.0 — split $1 of collateral, sell both legs.
	Overpriced
)

func (d Direction) String() string {
	switch d {
	case Underpriced:
		return "UNDER"
	case Overpriced:
		return "OVER"
	default:
		return "?"
	}
}

// ArbitrageOpportunity is a scored deviation of a market's YES+NO price sum
// from one unit of collateral. Produced by the Detector, consumed by the
// Planner. GrossEdge is in collateral units per complete set.
type ArbitrageOpportunity struct {
	MarketID   string
	Direction  Direction
	YesPrice   float64
	NoPrice    float64
	PriceSum   float64
	Deviation  float64 // |PriceSum - 1.0|
	GrossEdge  float64 // == Deviation, per complete set, before costs
	Confidence float64 // in [0, 1]
	DetectedAt time.Time
}
