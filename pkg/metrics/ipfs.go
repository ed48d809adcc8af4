package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"go.uber.org/zap"
)

// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
const IpfsPrefix = "ipfs://"

// Resolver maps a model identifier to the CID of its published metrics
// document. Deployments typically back this with a registry lookup.
type Resolver func(modelID string) (string, error)

// IPFSSource fetches content-addressed metrics documents from IPFS through
// a Kubo HTTP API client.
type IPFSSource struct {
	api     *rpc.HttpApi
	resolve Resolver
}

// NewIPFSSource connects to the Kubo HTTP API at apiURL and returns a source
// that resolves model ids to CIDs with resolve.
func NewIPFSSource(apiURL string, resolve Resolver) (*IPFSSource, error) {
	httpClient := http.Client{
		Timeout: 5 * time.Second,
	}
	api, err := rpc.NewURLApiWithClient(apiURL, &httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to IPFS at %s: %w", apiURL, err)
	}
	return &IPFSSource{api: api, resolve: resolve}, nil
}

// Metrics resolves modelID to a CID, retrieves the document via `ipfs cat`,
// and decodes it as a JSON object of component values.
func (s *IPFSSource) Metrics(ctx context.Context, modelID string) (map[string]float64, error) {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
	}

	hash, err := s.resolve(modelID)
	if err != nil {
		return nil, fmt.Errorf("resolve model %s: %w", modelID, err)
	}
	hash = formatHash(hash)
	zap.L().Debug("fetching metrics from IPFS", zap.String("model", modelID), zap.String("hash", hash))

	cID, err := cid.Parse(hash)
	if err != nil {
		return nil, fmt.Errorf("parse cid %q: %w", hash, err)
	}

	resp, err := s.api.Request("cat", cID.String()).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", cID, err)
	}
	defer func() {
		if err := resp.Close(); err != nil {
			zap.L().Error("error closing ipfs response", zap.String("hash", hash), zap.Error(err))
		}
	}()
	if resp.Error != nil {
		return nil, fmt.Errorf("ipfs cat %s: %w", cID, resp.Error)
	}

	body, err := io.ReadAll(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("read ipfs content %s: %w", cID, err)
	}
	var out map[string]float64
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode metrics for %s: %w", modelID, err)
	}
	return out, nil
}

// formatHash strips the URI scheme prefix and any non-alphanumeric
// characters (except '=') to produce a clean CID string.
func formatHash(hash string) string {
	hash = strings.Replace(hash, IpfsPrefix, "", -1)
	return removeSpecialCharacters(hash)
}

func removeSpecialCharacters(s string) string {
	reg := regexp.MustCompile("[^a-zA-Z0-9=]")
	return reg.ReplaceAllString(s, "")
}
