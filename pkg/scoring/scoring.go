package scoring

import (
	"crypto/sha256"
	"sort"
	"strconv"
	"time"

	"github.com/chatten/compute-engine/pkg/config"
	"github.com/chatten/compute-engine/pkg/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMintThreshold is the composite score required for a "mint"
// recommendation when no explicit threshold is configured.
const DefaultMintThreshold = 50

var (
	hundred = decimal.NewFromInt(100)
)

// Scorer computes composite quality scores from weighted metric components.
// Construct with New; the zero value is not usable.
type Scorer struct {
	weights   map[string]decimal.Decimal
	threshold int
	defaults  map[string]float64
	cache     *expirable.LRU[string, cachedScore]
}

type cachedScore struct {
	inputs [32]byte
	result model.QualityResult
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithThreshold overrides the mint threshold (default 50).
func WithThreshold(threshold int) Option {
	return func(s *Scorer) { s.threshold = threshold }
}

// WithDefaults supplies placeholder values for metrics missing from a scoring
// input. Without this option, missing metrics contribute zero.
func WithDefaults(defaults map[string]float64) Option {
	return func(s *Scorer) { s.defaults = defaults }
}

// WithCache enables result caching with the given capacity and TTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Scorer) {
		s.cache = expirable.NewLRU[string, cachedScore](size, nil, ttl)
	}
}

// New constructs a Scorer for the given weight set. The weights are validated
// once here: they must be non-negative and sum to 1 within the configured
// epsilon, otherwise config.ErrWeightsInvalid is returned.
func New(weights map[string]decimal.Decimal, opts ...Option) (*Scorer, error) {
	if err := config.ValidateWeights(weights); err != nil {
		return nil, err
	}

	w := make(map[string]decimal.Decimal, len(weights))
	for name, weight := range weights {
		w[name] = weight
	}

	s := &Scorer{
		weights:   w,
		threshold: DefaultMintThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Threshold returns the mint threshold the scorer recommends against.
func (s *Scorer) Threshold() int {
	return s.threshold
}

// Score computes the composite quality score for a model. Missing metrics
// fall back to the configured defaults; all component values are clamped to
// [0, 100] before weighting, and the composite is clamped and rounded down.
//
// Repeated calls with identical inputs may be served from the cache; the
// result is always identical to a fresh computation.
func (s *Scorer) Score(modelID string, metrics map[string]float64) model.QualityResult {
	var inputs [32]byte
	if s.cache != nil {
		inputs = hashMetrics(metrics)
		if entry, ok := s.cache.Get(modelID); ok && entry.inputs == inputs {
			zap.L().Debug("score cache hit", zap.String("model", modelID))
			return copyResult(entry.result)
		}
	}

	contributions := make(map[string]decimal.Decimal, len(s.weights))
	composite := decimal.Zero
	for name, weight := range s.weights {
		value, ok := metrics[name]
		if !ok {
			value = s.defaults[name]
		}
		contribution := weight.Mul(clampValue(value))
		contributions[name] = contribution
		composite = composite.Add(contribution)
	}

	if composite.IsNegative() {
		composite = decimal.Zero
	} else if composite.GreaterThan(hundred) {
		composite = hundred
	}

	result := model.QualityResult{
		ModelID:        modelID,
		Composite:      int(composite.IntPart()),
		Contributions:  contributions,
		Recommendation: model.RecommendImprove,
	}
	if result.Composite >= s.threshold {
		result.Recommendation = model.RecommendMint
	}

	if s.cache != nil {
		s.cache.Add(modelID, cachedScore{inputs: inputs, result: copyResult(result)})
	}
	return result
}

// Rank scores every model in inputs and returns the results ordered by
// descending composite score, ties broken by model identifier ascending.
func (s *Scorer) Rank(inputs map[string]map[string]float64) []model.QualityResult {
	results := make([]model.QualityResult, 0, len(inputs))
	for modelID, metrics := range inputs {
		results = append(results, s.Score(modelID, metrics))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Composite != results[j].Composite {
			return results[i].Composite > results[j].Composite
		}
		return results[i].ModelID < results[j].ModelID
	})
	return results
}

// clampValue bounds a raw metric value to [0, 100] as a decimal.
func clampValue(v float64) decimal.Decimal {
	if v < 0 {
		return decimal.Zero
	}
	if v > 100 {
		return hundred
	}
	return decimal.NewFromFloat(v)
}

// hashMetrics produces a stable digest of a metrics map by hashing the
// entries in sorted key order.
func hashMetrics(metrics map[string]float64) [32]byte {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.FormatFloat(metrics[name], 'g', -1, 64)))
		h.Write([]byte{';'})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func copyResult(r model.QualityResult) model.QualityResult {
	contributions := make(map[string]decimal.Decimal, len(r.Contributions))
	for name, c := range r.Contributions {
		contributions[name] = c
	}
	r.Contributions = contributions
	return r
}
