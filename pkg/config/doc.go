// Package config defines the runtime configuration for the marketplace
// engine: role addresses, pricing and fee parameters, the quality-score
// weight set, and score-cache tuning. It also provides validation and
// defaulting helpers.
//
// Weights are validated once here, at configuration time, not per scoring
// call: the weighted components must sum to exactly 1 within a small rounding
// epsilon, otherwise Validate returns ErrWeightsInvalid.
package config
