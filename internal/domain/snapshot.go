// Package domain contains the core entities and pure logic: snapshots,
// opportunities, plans and the detection/planning rules over them. No I/O.
package domain

import "time"

// Quote is one side's price, which may be unavailable when the venue has no
// book for it. A zero price is a valid quote — absence is a separate flag,
// never a sentinel price.
type Quote struct {
	Price     float64
	Available bool
}

// QuoteOf returns an available quote at the given price.
func QuoteOf(price float64) Quote {
	return Quote{Price: price, Available: true}
}

// NoQuote returns an unavailable quote.
func NoQuote() Quote {
	return Quote{}
}

// InRange reports whether the quote's price is a valid probability-style
// price. Both bounds are valid prices.
func (q Quote) InRange() bool {
	return q.Price >= 0 && q.Price <= 1
}

// PriceSnapshot is one market's YES/NO quotes at a point in time. Immutable
// once built.
type PriceSnapshot struct {
	MarketID  string
	Yes       Quote
	No        Quote
	Timestamp time.Time
}

// Complete reports whether both sides have a quote.
func (s PriceSnapshot) Complete() bool {
	return s.Yes.Available && s.No.Available
}

// PriceSum returns yes + no. Only meaningful when Complete.
func (s PriceSnapshot) PriceSum() float64 {
	return s.Yes.Price + s.No.Price
}

// Age returns how old the snapshot is at now. Snapshots stamped in the
// future count as age zero, not negative.
func (s PriceSnapshot) Age(now time.Time) time.Duration {
	age := now.Sub(s.Timestamp)
	if age < 0 {
		return 0
	}
	return age
}
