// Package ledger implements the NEP-11-style non-fungible token ledger of
// the marketplace engine: token existence, ownership, metadata, and
// transfer/approval semantics.
//
// Every existing token has exactly one owner and immutable mint-time
// metadata (model hash, quality score, compute units). Tokens are created by
// Mint, change hands through Transfer, and are removed by Burn; burns are
// whole-token only. Total supply and a derived owner index are maintained in
// the shared key-value store alongside the tokens themselves.
//
// Transfer authorization accepts the owner, an operator approved for all of
// the owner's tokens, or the token's single approved spender. A successful
// transfer clears the single-token approval, so a spender approval is good
// for exactly one transfer.
//
// # Receiver notification
//
// Contract-capable accounts may register a Receiver. After a transfer to
// such an account has fully committed, the ledger makes a best-effort
// notification call. The call is advisory: an error is logged and a panic is
// caught and reported, never propagated. Because all ledger state is
// finalized before the call, a reentrant receiver observes consistent state
// and cannot undo or double-apply the transfer.
package ledger
