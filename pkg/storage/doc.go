// Package storage defines the persisted state layout of the marketplace
// engine as prefixed key-value storage, together with an in-memory
// implementation.
//
// The engine keeps every piece of durable state under a single-byte key
// prefix, mirroring the storage layout of the on-chain contract it models:
// tokens by id, the owner index, approvals, counters (total supply, mint
// sequence), role assignments, the pause flag, and price configuration.
// Component packages (access, ledger, reserve) never share keys; each prefix
// has exactly one writer.
//
// # Store
//
// Store is deliberately infallible: the engine validates every operation
// before mutating, so writes that cannot fail keep operations atomic without
// transactions. Backends with fallible writes (disk, network) belong to an
// outer persistence layer that snapshots the in-memory state.
//
//	type Store interface {
//		Get(key []byte) ([]byte, bool)
//		Put(key, value []byte)
//		Delete(key []byte)
//		Ascend(prefix []byte, fn func(key, value []byte) bool)
//	}
//
// Ascend visits keys in lexicographic order, which makes derived iteration
// (e.g., tokens of an owner) deterministic.
package storage
