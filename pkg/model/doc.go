// Package model defines the data structures shared by the marketplace engine
// packages.
//
// This package contains the core domain types:
//   - Compute tokens and their immutable metadata (model hash, quality,
//     compute-unit amount)
//   - Quality score results with per-component contributions and the
//     mint/improve recommendation
//   - Domain events emitted by the ledger and the marketplace engine
//
// Accounts are identified by 20-byte addresses (go-ethereum common.Address);
// token and model identifiers are 32-byte hashes (common.Hash). A token
// identifier is derived as sha256(model id || mint sequence), so every minted
// token is unique even when several tokens reference the same model.
//
// # Events
//
// Every state-changing operation of the engine emits one or more events
// through an EventSink:
//
//	type EventSink interface {
//		Emit(event Event)
//	}
//
// Ledger-level events (Mint, Transfer, Burn) follow NEP-11 conventions: mints
// are transfers from the zero address and burns are transfers to it.
// Marketplace-level events (Buy, Sell, Withdraw, Paused, Resumed,
// OracleChanged, AdminChanged, PriceChanged, ReserveFunded) describe the
// economic operation that caused the ledger activity.
package model
