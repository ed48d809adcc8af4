package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultGatewayTimeout bounds a single gateway request when the caller's
// context has no earlier deadline.
const DefaultGatewayTimeout = 10 * time.Second

// GatewaySource fetches metrics documents from an HTTP gateway. The document
// at {endpoint}{modelID} must be a JSON object mapping component names to
// numeric values.
type GatewaySource struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
}

// NewGatewaySource returns a source reading from the given gateway base URL.
// The model id is path-escaped and concatenated to the endpoint; include the
// trailing slash if the gateway requires one.
func NewGatewaySource(endpoint string) *GatewaySource {
	return &GatewaySource{
		endpoint: endpoint,
		client:   http.DefaultClient,
		timeout:  DefaultGatewayTimeout,
	}
}

// WithClient replaces the HTTP client, e.g. to configure transport-level
// timeouts or proxies.
func (g *GatewaySource) WithClient(client *http.Client) *GatewaySource {
	g.client = client
	return g
}

// Metrics fetches and decodes the metrics document for modelID.
func (g *GatewaySource) Metrics(ctx context.Context, modelID string) (map[string]float64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	target := g.endpoint + url.PathEscape(modelID)
	zap.L().Debug("fetching gateway metrics", zap.String("url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Error("failed to close gateway response", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %s for model %s", resp.Status, modelID)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out map[string]float64
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode metrics for %s: %w", modelID, err)
	}
	return out, nil
}
