// Package onchain prices the CTF split transaction from live Polygon gas.
//
// The split itself is never broadcast in paper mode; this package exists so
// the gas component of the profit math tracks the real chain instead of a
// constant. splitPositions() on the CTF contract converts collateral into
// YES+NO token pairs:
//
//	$100 USDC.e -> 100 YES tokens + 100 NO tokens
package onchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	// Gas limit for splitPosition, conservative upper bound.
	splitGasLimit = uint64(200_000)

	// POL price fallback (USD), used when no oracle is reachable.
	polPriceFallbackUSD = 0.12

	gasPriceUpdateInterval = 5 * time.Minute
	polPriceUpdateInterval = 5 * time.Minute

	coingeckoPOLPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=polygon-ecosystem-token&vs_currencies=usd"
)

// GasEstimator prices a split transaction in USD from the chain's suggested
// gas price and the POL spot price. Both inputs are cached and every failure
// degrades to the last good value or a fixed fallback, so estimation never
// errors.
type GasEstimator struct {
	client *ethclient.Client
	http   *http.Client

	mu           sync.RWMutex
	cachedGasWei *big.Int
	gasUpdatedAt time.Time
	polPrice     float64
	polPriceAt   time.Time
}

// NewGasEstimator connects to a Polygon RPC endpoint.
func NewGasEstimator(rpcURL string) (*GasEstimator, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain.NewGasEstimator: dial %s: %w", rpcURL, err)
	}
	return &GasEstimator{
		client: client,
		http:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// EstimateGasCostUSD returns the current USD cost of one split transaction.
func (g *GasEstimator) EstimateGasCostUSD(ctx context.Context) float64 {
	gasPrice := g.gasPriceWei(ctx)

	costPOL := new(big.Float).SetInt(new(big.Int).Mul(gasPrice, big.NewInt(int64(splitGasLimit))))
	costPOL.Quo(costPOL, new(big.Float).SetFloat64(1e18))

	costPOLf, _ := costPOL.Float64()
	return costPOLf * g.polPriceUSD()
}

// Close releases the RPC connection.
func (g *GasEstimator) Close() {
	g.client.Close()
}

// gasPriceWei returns the cached suggested gas price, refreshing it when
// stale. A 10% buffer matches what a live transaction would bid for faster
// inclusion.
func (g *GasEstimator) gasPriceWei(ctx context.Context) *big.Int {
	g.mu.RLock()
	cached := g.cachedGasWei
	updatedAt := g.gasUpdatedAt
	g.mu.RUnlock()

	if cached != nil && time.Since(updatedAt) < gasPriceUpdateInterval {
		return cached
	}

	price, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		slog.Debug("gas price refresh failed", "err", err)
		if cached != nil {
			return cached
		}
		return big.NewInt(30_000_000_000) // 30 gwei fallback
	}

	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))

	g.mu.Lock()
	g.cachedGasWei = buffered
	g.gasUpdatedAt = time.Now()
	g.mu.Unlock()

	return buffered
}

// polPriceUSD returns the cached POL price, refreshing from CoinGecko when
// stale.
func (g *GasEstimator) polPriceUSD() float64 {
	g.mu.RLock()
	cached := g.polPrice
	updatedAt := g.polPriceAt
	g.mu.RUnlock()

	if cached > 0 && time.Since(updatedAt) < polPriceUpdateInterval {
		return cached
	}

	price, err := g.fetchPOLPrice()
	if err != nil {
		slog.Debug("POL price refresh failed", "err", err)
		if cached > 0 {
			return cached
		}
		return polPriceFallbackUSD
	}

	g.mu.Lock()
	g.polPrice = price
	g.polPriceAt = time.Now()
	g.mu.Unlock()

	return price
}

// fetchPOLPrice queries CoinGecko's simple price endpoint.
func (g *GasEstimator) fetchPOLPrice() (float64, error) {
	resp, err := g.http.Get(coingeckoPOLPriceURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("coingecko status %d: %s", resp.StatusCode, string(body))
	}

	var out map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}

	price := out["polygon-ecosystem-token"]["usd"]
	if price <= 0 {
		return 0, fmt.Errorf("coingecko returned no price")
	}
	return price, nil
}
