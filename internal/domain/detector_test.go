package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func freshSnapshot(yes, no float64) PriceSnapshot {
	return PriceSnapshot{
		MarketID:  "0xmkt",
		Yes:       QuoteOf(yes),
		No:        QuoteOf(no),
		Timestamp: testNow,
	}
}

func TestDetect_Underpriced(t *testing.T) {
	d := NewDetector(DetectorConfig{})

	opp := d.Detect(freshSnapshot(0.45, 0.50), testNow)

	require.NotNil(t, opp)
	assert.Equal(t, Underpriced, opp.Direction)
	assert.InDelta(t, 0.95, opp.PriceSum, 1e-9)
	assert.InDelta(t, 0.05, opp.Deviation, 1e-9)
	assert.InDelta(t, 0.05, opp.GrossEdge, 1e-9)
	// deviation at saturation, fresh snapshot → full confidence
	assert.InDelta(t, 1.0, opp.Confidence, 1e-9)
}

func TestDetect_Overpriced(t *testing.T) {
	d := NewDetector(DetectorConfig{})

	opp := d.Detect(freshSnapshot(0.55, 0.52), testNow)

	require.NotNil(t, opp)
	assert.Equal(t, Overpriced, opp.Direction)
	assert.InDelta(t, 1.07, opp.PriceSum, 1e-9)
	assert.InDelta(t, 0.07, opp.Deviation, 1e-9)
	assert.InDelta(t, 1.0, opp.Confidence, 1e-9)
}

func TestDetect_MissingQuote(t *testing.T) {
	d := NewDetector(DetectorConfig{})

	snap := freshSnapshot(0.45, 0.50)
	snap.No = NoQuote()

	assert.Nil(t, d.Detect(snap, testNow))
}

func TestDetect_ZeroPriceIsAQuote(t *testing.T) {
	d := NewDetector(DetectorConfig{})

	// price 0 is a valid quote, not a missing one: sum=0.45 is a huge edge
	opp := d.Detect(freshSnapshot(0.45, 0.0), testNow)
	require.NotNil(t, opp)
	assert.Equal(t, Underpriced, opp.Direction)
	assert.InDelta(t, 0.55, opp.Deviation, 1e-9)
}

func TestDetect_EpsilonBoundaryInclusive(t *testing.T) {
	// 0.5 and 0.375 are exact in binary, so deviation is exactly 0.125
	// and the boundary comparison has no rounding slack.
	d := NewDetector(DetectorConfig{Epsilon: 0.125})

	// deviation == epsilon exactly → no opportunity, on either side
	assert.Nil(t, d.Detect(freshSnapshot(0.5, 0.375), testNow))
	assert.Nil(t, d.Detect(freshSnapshot(0.5, 0.625), testNow))

	// deviation just past the band → opportunity
	tighter := NewDetector(DetectorConfig{Epsilon: 0.0625})
	require.NotNil(t, tighter.Detect(freshSnapshot(0.5, 0.375), testNow))
	require.NotNil(t, tighter.Detect(freshSnapshot(0.5, 0.625), testNow))
}

func TestDetect_PriceOutOfRange(t *testing.T) {
	d := NewDetector(DetectorConfig{})

	snap := freshSnapshot(1.2, 0.50)
	assert.Nil(t, d.Detect(snap, testNow))

	snap = freshSnapshot(0.45, -0.1)
	assert.Nil(t, d.Detect(snap, testNow))
}

func TestDetect_StaleSnapshot(t *testing.T) {
	d := NewDetector(DetectorConfig{MaxSnapshotAge: 30 * time.Second})

	snap := freshSnapshot(0.45, 0.50)
	snap.Timestamp = testNow.Add(-31 * time.Second)
	assert.Nil(t, d.Detect(snap, testNow))

	// exactly at the cutoff is still valid
	snap.Timestamp = testNow.Add(-30 * time.Second)
	assert.NotNil(t, d.Detect(snap, testNow))
}

func TestDetect_Deterministic(t *testing.T) {
	d := NewDetector(DetectorConfig{})
	snap := freshSnapshot(0.46, 0.51)

	a := d.Detect(snap, testNow)
	b := d.Detect(snap, testNow)
	require.NotNil(t, a)
	assert.Equal(t, *a, *b)
}

func TestConfidence_Bounds(t *testing.T) {
	// saturated deviation, fresh → 1
	assert.InDelta(t, 1.0, Confidence(0.10, 0.05, 0, 30*time.Second), 1e-9)
	// no deviation → 0
	assert.Equal(t, 0.0, Confidence(0, 0.05, 0, 30*time.Second))
	// fully aged → 0 regardless of deviation
	assert.Equal(t, 0.0, Confidence(0.10, 0.05, 30*time.Second, 30*time.Second))
}

func TestConfidence_MonotoneInDeviation(t *testing.T) {
	age := 10 * time.Second
	maxAge := 30 * time.Second
	prev := -1.0
	for _, dev := range []float64{0.001, 0.01, 0.02, 0.04, 0.05, 0.08} {
		c := Confidence(dev, 0.05, age, maxAge)
		assert.GreaterOrEqual(t, c, prev, "deviation %v", dev)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
}

func TestConfidence_MonotoneInAge(t *testing.T) {
	maxAge := 30 * time.Second
	prev := 2.0
	for _, age := range []time.Duration{0, 5 * time.Second, 15 * time.Second, 29 * time.Second, 40 * time.Second} {
		c := Confidence(0.03, 0.05, age, maxAge)
		assert.LessOrEqual(t, c, prev, "age %v", age)
		assert.GreaterOrEqual(t, c, 0.0)
		prev = c
	}
}
