// Package scoring computes the composite quality score that gates minting in
// the marketplace engine.
//
// A Scorer holds a fixed set of named components with decimal weights that
// must sum to 1; the weight set is validated once at construction, never per
// call. Scoring is a pure function of the inputs:
//
//	composite = Σ weight_i * clamp(metric_i, 0, 100)
//
// clamped to [0, 100] and rounded down to an integer. Metrics missing from
// the input fall back to caller-supplied placeholder defaults; the scorer
// never invents values on its own, so a metric absent from both maps simply
// contributes zero.
//
// Models scoring at or above the mint threshold (50 by default) get the
// "mint" recommendation, everything below gets "improve". Rank orders
// multiple models by descending composite score with ties broken by model
// identifier ascending, which keeps rankings deterministic.
//
// Results are cached per model for a bounded duration, keyed by the model
// identifier and a hash of the metric inputs. The cache is purely a latency
// optimization: a miss or an expired entry recomputes the identical result.
package scoring
