package polymarket

import (
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// book is the minimal order book view this adapter needs: the inside of
// each side. Zero means the side is empty.
type book struct {
	BestBid float64
	BestAsk float64
}

// midpoint returns the book's mid price and whether both sides exist.
// A one-sided or empty book produces no quote rather than a guessed price.
func (b book) midpoint() (float64, bool) {
	if b.BestBid <= 0 || b.BestAsk <= 0 {
		return 0, false
	}
	return (b.BestBid + b.BestAsk) / 2, true
}

// mapMarket converts a raw CLOB market, reporting ok=false when it is not
// an active two-token YES/NO market.
func mapMarket(r clobMarket) (Market, bool) {
	if !r.Active || r.Closed || len(r.Tokens) != 2 {
		return Market{}, false
	}

	m := Market{ConditionID: r.ConditionID, Question: r.Question}
	for _, t := range r.Tokens {
		switch strings.ToUpper(t.Outcome) {
		case "YES":
			m.YesTokenID = t.TokenID
		case "NO":
			m.NoTokenID = t.TokenID
		}
	}
	if m.YesTokenID == "" || m.NoTokenID == "" {
		return Market{}, false
	}
	return m, true
}

// mapBooks reduces the raw batch response to inside prices keyed by token ID.
func mapBooks(raw []orderBookResponse) map[string]book {
	result := make(map[string]book, len(raw))
	for _, r := range raw {
		result[r.AssetID] = book{
			BestBid: bestPrice(r.Bids, false),
			BestAsk: bestPrice(r.Asks, true),
		}
	}
	return result
}

// bestPrice returns the inside of one book side: lowest price for asks,
// highest for bids. Unparseable or non-positive levels are skipped.
func bestPrice(raw []bookEntryRaw, lowest bool) float64 {
	best := 0.0
	for _, r := range raw {
		price, err := strconv.ParseFloat(r.Price, 64)
		if err != nil || price <= 0 {
			continue
		}
		size, err := strconv.ParseFloat(r.Size, 64)
		if err != nil || size <= 0 {
			continue
		}
		if best == 0 || (lowest && price < best) || (!lowest && price > best) {
			best = price
		}
	}
	return best
}

// snapshotFromBooks builds the market's price snapshot from the two token
// books. Missing books or one-sided books yield an unavailable quote; the
// detection layer decides what an incomplete snapshot means.
func snapshotFromBooks(m Market, books map[string]book, at time.Time) domain.PriceSnapshot {
	snap := domain.PriceSnapshot{
		MarketID:  m.ConditionID,
		Yes:       domain.NoQuote(),
		No:        domain.NoQuote(),
		Timestamp: at,
	}
	if b, ok := books[m.YesTokenID]; ok {
		if mid, ok := b.midpoint(); ok {
			snap.Yes = domain.QuoteOf(mid)
		}
	}
	if b, ok := books[m.NoTokenID]; ok {
		if mid, ok := b.midpoint(); ok {
			snap.No = domain.QuoteOf(mid)
		}
	}
	return snap
}
