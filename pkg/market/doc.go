// Package market exposes the marketplace engine, the single entry surface
// through which external callers mutate the compute-token economy.
//
// The engine wires the component packages (access control, the token ledger,
// the reserve accountant, and the quality scorer) over one shared key-value
// store. Every operation takes the caller identity explicitly and follows
// the same shape:
//
//	check pause -> authorize -> validate preconditions -> mutate -> emit events
//
// All validation happens before any mutation, so a failed operation leaves
// zero state changes behind. The engine has no internal parallelism; the
// hosting environment serializes operations, and atomicity comes from this
// strict ordering rather than from locking.
//
// # Economic flows
//
//   - MintCompute: oracle-only and quality-gated. The supplied metrics are
//     scored; below the mint threshold the mint is rejected. The minted
//     capacity is scaled by the composite score (units * quality / 100).
//   - BuyCompute: converts a settlement-asset payment into a fresh token at
//     floor(paid / price) units, crediting the reserve. The division
//     remainder stays in the reserve, not refunded.
//   - SellCompute: burns a token and pays out units * price minus the sell
//     fee from the reserve. Reserve sufficiency is validated before the burn.
//   - WithdrawGas: admin-only reserve withdrawal.
//   - FundReserve: reserve top-up outside the buy flow, e.g. a settlement
//     deposit forwarded by the hosting layer. Allowed while paused so
//     deposits already in flight are never stranded.
//
// Payouts leave the engine through the Settlement interface. A settlement
// transfer is the only mutation that can fail, so the engine performs it
// first: if it errors, no ledger or reserve state has changed.
//
// # Errors
//
// Component packages fail with named sentinels. The predicates
// IsAuthorizationError, IsStateError, IsValidationError, and
// IsResourceError map them onto the error categories callers branch on.
// Callers should surface these as actionable messages and must not blindly
// retry mutating operations; idempotency on ambiguous failures belongs to
// the external submission layer.
package market
