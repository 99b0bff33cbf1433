package polymarket

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	marketsPath = "/markets"
	booksPath   = "/books"
	pageSize    = 100
	batchSize   = 20 // max token_ids per request to /books
)

// Market is a tradable binary market: exactly one YES and one NO token,
// active and not closed.
type Market struct {
	ConditionID string
	Question    string
	YesTokenID  string
	NoTokenID   string
}

// FetchMarkets returns all active binary markets, paginating with
// next_cursor until exhausted. Markets without a clean YES/NO token pair
// are skipped.
func (c *Client) FetchMarkets(ctx context.Context) ([]Market, error) {
	var all []Market
	cursor := ""

	for {
		url := fmt.Sprintf("%s%s?limit=%d", c.clobBase, marketsPath, pageSize)
		if cursor != "" {
			url += "&next_cursor=" + cursor
		}

		var resp marketsResponse
		if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("polymarket.FetchMarkets: %w", err)
		}

		for _, raw := range resp.Data {
			m, ok := mapMarket(raw)
			if !ok {
				continue
			}
			all = append(all, m)
		}

		slog.Debug("fetched markets page",
			"count", len(resp.Data),
			"usable", len(all),
		)

		// "LTE=" is the base64-encoded empty cursor marking the last page
		if resp.NextCursor == "" || resp.NextCursor == "LTE=" {
			break
		}
		cursor = resp.NextCursor
	}

	slog.Info("markets fetched", "total", len(all))
	return all, nil
}

// fetchBooksBatch does one POST /books for up to batchSize token IDs and
// returns the books keyed by token ID.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]book, error) {
	body := make([]orderBookRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = orderBookRequest{TokenID: id}
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, fmt.Errorf("POST /books: %w", err)
	}

	return mapBooks(resp), nil
}

// fetchBooks fetches the order books for the given token IDs, one batch
// goroutine per batchSize tokens. The token-bucket limiter in the client
// paces the goroutines, no extra semaphore needed.
func (c *Client) fetchBooks(ctx context.Context, tokenIDs []string) (map[string]book, error) {
	if len(tokenIDs) == 0 {
		return map[string]book{}, nil
	}

	batches := splitBatches(tokenIDs, batchSize)

	type batchResult struct {
		books map[string]book
		err   error
	}
	resultCh := make(chan batchResult, len(batches))

	for _, batch := range batches {
		go func() {
			books, err := c.fetchBooksBatch(ctx, batch)
			resultCh <- batchResult{books: books, err: err}
		}()
	}

	result := make(map[string]book, len(tokenIDs))
	var firstErr error
	for range batches {
		r := <-resultCh
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("polymarket.fetchBooks: %w", r.err)
			}
			continue
		}
		for k, v := range r.books {
			result[k] = v
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	slog.Debug("order books fetched", "tokens", len(tokenIDs), "books", len(result))
	return result, nil
}

// splitBatches splits tokenIDs into slices of at most size elements.
func splitBatches(tokenIDs []string, size int) [][]string {
	if size <= 0 {
		size = batchSize
	}
	batches := make([][]string, 0, (len(tokenIDs)+size-1)/size)
	for i := 0; i < len(tokenIDs); i += size {
		end := i + size
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}
