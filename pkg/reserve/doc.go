// Package reserve owns the settlement-asset reserve backing the compute
// token supply, together with the price configuration used by the buy and
// sell flows.
//
// The reserve is a single non-negative balance: buys credit it, sell payouts
// and admin withdrawals debit it. Debits are all-or-nothing; an amount
// exceeding the balance fails with ErrInsufficientReserve and leaves the
// balance untouched.
//
// Pricing is integer floor division throughout: a buy mints
// floor(paid / price) units and keeps the remainder (no refund), and the
// sell fee is floor(gross * feeRate). The
// price per unit is nullable; buys and sells are rejected with ErrPriceUnset
// until an oracle sets it. The fee rate is a decimal fraction in [0, 1).
package reserve
