package config

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ErrWeightsInvalid is returned when the quality weights do not sum to 1
// within WeightEpsilon.
var ErrWeightsInvalid = errors.New("quality weights must sum to 1")

// WeightEpsilon is the tolerated rounding error when checking that weights
// sum to 1.
var WeightEpsilon = decimal.New(1, -9) // 1e-9

// Config holds all engine settings. Use Validate to fill implicit defaults
// and to check the configuration invariants before constructing the engine.
type Config struct {
	// Admin is the initial admin address (required). Exactly one admin
	// exists; it can later be rotated only by itself.
	Admin common.Address `json:"admin" yaml:"admin"`
	// Oracle is the initial oracle/minter address (required). Rotatable by
	// the admin.
	Oracle common.Address `json:"oracle" yaml:"oracle"`

	// FeeRate is the sell fee as a fraction in [0, 1). Default: 0.003
	// (3 per 1000).
	FeeRate decimal.Decimal `json:"fee_rate" yaml:"fee_rate"`
	// PricePerUnit is the settlement-asset price of one compute unit.
	// Optional; buys are rejected while unset (nil).
	PricePerUnit *big.Int `json:"price_per_unit" yaml:"price_per_unit"`

	// MintThreshold is the minimum composite quality score required to mint.
	// Default: 50.
	MintThreshold int `json:"mint_threshold" yaml:"mint_threshold"`
	// DefaultMarketQuality is the quality assigned to tokens minted through
	// the buy flow, where no oracle-signed metrics are available.
	// Default: 75. Must be >= MintThreshold.
	DefaultMarketQuality int `json:"default_market_quality" yaml:"default_market_quality"`

	// Weights is the quality-score weight set. Defaults to the five-metric
	// set used by the trader agent (latency, throughput, accuracy, uptime,
	// cost_efficiency). Must sum to 1 within WeightEpsilon.
	Weights map[string]decimal.Decimal `json:"weights" yaml:"weights"`
	// MetricDefaults supplies placeholder values for metrics missing from a
	// scoring input. The scorer never invents defaults on its own.
	MetricDefaults map[string]float64 `json:"metric_defaults" yaml:"metric_defaults"`

	// ScoreCacheTTL bounds how long a score result may be served from cache.
	// Default: 5 minutes.
	ScoreCacheTTL time.Duration `json:"score_cache_ttl" yaml:"score_cache_ttl"`
	// ScoreCacheSize is the maximum number of cached score results.
	// Default: 256.
	ScoreCacheSize int `json:"score_cache_size" yaml:"score_cache_size"`
}

// DefaultWeights returns the standard five-component weight set described by
// the trader agent: latency, throughput, accuracy, uptime, cost efficiency.
func DefaultWeights() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"latency":         decimal.NewFromFloat(0.20),
		"throughput":      decimal.NewFromFloat(0.20),
		"accuracy":        decimal.NewFromFloat(0.25),
		"uptime":          decimal.NewFromFloat(0.25),
		"cost_efficiency": decimal.NewFromFloat(0.10),
	}
}

// Validate normalizes the configuration by applying implicit defaults
// (fee rate, mint threshold, market quality, weights, cache tuning) and
// verifies the invariants: admin and oracle must be set, the fee rate must
// lie in [0, 1), the price (when set) must be positive, the market quality
// must clear the mint threshold, and the weights must sum to 1.
func (c *Config) Validate() error {
	if c.Admin == (common.Address{}) {
		return errors.New("admin address is required")
	}
	if c.Oracle == (common.Address{}) {
		return errors.New("oracle address is required")
	}

	if c.FeeRate.IsZero() {
		c.FeeRate = decimal.NewFromFloat(0.003)
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate %s out of range [0, 1)", c.FeeRate)
	}

	if c.PricePerUnit != nil && c.PricePerUnit.Sign() <= 0 {
		return fmt.Errorf("price per unit must be positive, got %s", c.PricePerUnit)
	}

	if c.MintThreshold == 0 {
		c.MintThreshold = 50
	}
	if c.MintThreshold < 0 || c.MintThreshold > 100 {
		return fmt.Errorf("mint threshold %d out of range [0, 100]", c.MintThreshold)
	}

	if c.DefaultMarketQuality == 0 {
		c.DefaultMarketQuality = 75
	}
	if c.DefaultMarketQuality < c.MintThreshold || c.DefaultMarketQuality > 100 {
		return fmt.Errorf("default market quality %d out of range [%d, 100]", c.DefaultMarketQuality, c.MintThreshold)
	}

	if len(c.Weights) == 0 {
		c.Weights = DefaultWeights()
	}
	if err := ValidateWeights(c.Weights); err != nil {
		return err
	}

	if c.ScoreCacheTTL == 0 {
		c.ScoreCacheTTL = 5 * time.Minute
	}
	if c.ScoreCacheSize == 0 {
		c.ScoreCacheSize = 256
	}

	return nil
}

// ValidateWeights checks that the weight set is non-empty, every weight is
// non-negative, and the sum is 1 within WeightEpsilon.
func ValidateWeights(weights map[string]decimal.Decimal) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: no components", ErrWeightsInvalid)
	}
	sum := decimal.Zero
	for name, w := range weights {
		if w.IsNegative() {
			return fmt.Errorf("%w: component %q is negative", ErrWeightsInvalid, name)
		}
		sum = sum.Add(w)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(WeightEpsilon) {
		return fmt.Errorf("%w: sum is %s", ErrWeightsInvalid, sum)
	}
	return nil
}
