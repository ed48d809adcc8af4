package metrics

import (
	"context"
	"errors"
	"fmt"
)

// ErrModelUnknown is returned when a source has no metrics for the model.
var ErrModelUnknown = errors.New("no metrics for model")

// Source resolves a model identifier to its raw metric components.
type Source interface {
	Metrics(ctx context.Context, modelID string) (map[string]float64, error)
}

// StaticSource serves metrics from a fixed in-memory table, keyed by model
// identifier.
type StaticSource map[string]map[string]float64

// Metrics returns a copy of the stored metrics for modelID.
func (s StaticSource) Metrics(_ context.Context, modelID string) (map[string]float64, error) {
	stored, ok := s[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelUnknown, modelID)
	}
	out := make(map[string]float64, len(stored))
	for name, value := range stored {
		out[name] = value
	}
	return out, nil
}
