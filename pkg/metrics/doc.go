// Package metrics fetches model performance metrics from external sources
// for use by the quality scorer.
//
// A Source maps a model identifier to the raw metric components (latency,
// throughput, accuracy, and so on) that the scorer weighs into a composite
// score. Three sources are provided:
//
//   - StaticSource: an in-memory fixture, used by tests and examples.
//   - GatewaySource: fetches a JSON metrics document over an HTTP gateway.
//   - IPFSSource: fetches a content-addressed metrics document from IPFS
//     through a Kubo HTTP API client, with the model id resolved to a CID
//     by a caller-supplied resolver.
//
// Sources only fetch and decode; validation (clamping, defaults for missing
// components) stays in the scorer.
package metrics
