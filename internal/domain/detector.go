package domain

import "time"

const (
	defaultEpsilon              = 0.001
	defaultConfidenceSaturation = 0.05
	defaultMaxSnapshotAge       = 30 * time.Second
)

// DetectorConfig holds the detection tunables. All values have sensible
// defaults so the zero value is usable in tests.
type DetectorConfig struct {
	// Epsilon is the max price-sum deviation treated as noise. Deviations
	// at or below Epsilon produce no opportunity (boundary inclusive on
	// the no-opportunity side).
	Epsilon float64

	// ConfidenceSaturation is the deviation at which confidence reaches 1.0.
	ConfidenceSaturation float64

	// MaxSnapshotAge is the staleness cutoff. Older snapshots are treated
	// as unavailable and produce no opportunity.
	MaxSnapshotAge time.Duration
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.Epsilon <= 0 {
		c.Epsilon = defaultEpsilon
	}
	if c.ConfidenceSaturation <= 0 {
		c.ConfidenceSaturation = defaultConfidenceSaturation
	}
	if c.MaxSnapshotAge <= 0 {
		c.MaxSnapshotAge = defaultMaxSnapshotAge
	}
	return c
}

// Detector finds rebalancing arbitrage in a single price snapshot.
// It is pure and safe for concurrent use across markets.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a Detector with the given config.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Detect returns the opportunity in the snapshot, or nil when there is none.
// It fails closed: unavailable quotes, prices outside [0,1] and stale
// snapshots all return nil rather than signalling. Deterministic given
// identical (snapshot, now).
func (d *Detector) Detect(snap PriceSnapshot, now time.Time) *ArbitrageOpportunity {
	if !snap.Complete() {
		return nil
	}
	if !snap.Yes.InRange() || !snap.No.InRange() {
		return nil
	}

	age := snap.Age(now)
	if age > d.cfg.MaxSnapshotAge {
		return nil
	}

	sum := snap.PriceSum()
	deviation := sum - 1.0
	direction := Overpriced
	if deviation < 0 {
		deviation = -deviation
		direction = Underpriced
	}
	if deviation <= d.cfg.Epsilon {
		return nil
	}

	return &ArbitrageOpportunity{
		MarketID:   snap.MarketID,
		Direction:  direction,
		YesPrice:   snap.Yes.Price,
		NoPrice:    snap.No.Price,
		PriceSum:   sum,
		Deviation:  deviation,
		GrossEdge:  deviation,
		Confidence: Confidence(deviation, d.cfg.ConfidenceSaturation, age, d.cfg.MaxSnapshotAge),
		DetectedAt: snap.Timestamp,
	}
}

// Confidence scores an opportunity in [0, 1]: linear in deviation up to the
// saturation point, discounted linearly by snapshot age up to maxAge.
// Monotone non-decreasing in deviation, non-increasing in age.
func Confidence(deviation, saturation float64, age, maxAge time.Duration) float64 {
	if saturation <= 0 || maxAge <= 0 {
		return 0
	}
	base := deviation / saturation
	if base > 1 {
		base = 1
	}
	if base < 0 {
		base = 0
	}

	freshness := 1 - float64(age)/float64(maxAge)
	if freshness > 1 {
		freshness = 1
	}
	if freshness < 0 {
		freshness = 0
	}

	return base * freshness
}
