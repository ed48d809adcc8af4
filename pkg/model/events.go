package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a domain event emitted by the ledger or the marketplace engine.
// Name returns a stable identifier suitable for logs and event filtering.
type Event interface {
	Name() string
}

// EventSink receives domain events. Implementations must not mutate engine
// state from Emit; the engine finalizes all state before emitting.
type EventSink interface {
	Emit(event Event)
}

// MintEvent records the creation of a compute token.
type MintEvent struct {
	TokenID      common.Hash
	Owner        common.Address
	ModelID      common.Hash
	Quality      int
	ComputeUnits *big.Int
}

func (MintEvent) Name() string { return "Mint" }

// TransferEvent records an ownership change. Mints use the zero address as
// From; burns use it as To.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	TokenID common.Hash
}

func (TransferEvent) Name() string { return "Transfer" }

// BurnEvent records the removal of a compute token.
type BurnEvent struct {
	TokenID      common.Hash
	Owner        common.Address
	ComputeUnits *big.Int
}

func (BurnEvent) Name() string { return "Burn" }

// BuyEvent records a reserve-backed purchase that minted a token.
type BuyEvent struct {
	Buyer        common.Address
	TokenID      common.Hash
	Paid         *big.Int
	ComputeUnits *big.Int
}

func (BuyEvent) Name() string { return "Buy" }

// SellEvent records a token burn paid out from the reserve.
type SellEvent struct {
	Seller  common.Address
	TokenID common.Hash
	Payout  *big.Int
	Fee     *big.Int
}

func (SellEvent) Name() string { return "Sell" }

// WithdrawEvent records an admin withdrawal from the reserve.
type WithdrawEvent struct {
	Admin  common.Address
	Amount *big.Int
}

func (WithdrawEvent) Name() string { return "Withdraw" }

// ReserveFundedEvent records a reserve top-up outside the buy flow.
type ReserveFundedEvent struct {
	From   common.Address
	Amount *big.Int
}

func (ReserveFundedEvent) Name() string { return "ReserveFunded" }

// PausedEvent records the engine entering the paused state.
type PausedEvent struct{}

func (PausedEvent) Name() string { return "Paused" }

// ResumedEvent records the engine leaving the paused state.
type ResumedEvent struct{}

func (ResumedEvent) Name() string { return "Resumed" }

// OracleChangedEvent records an oracle/minter rotation.
type OracleChangedEvent struct {
	Old common.Address
	New common.Address
}

func (OracleChangedEvent) Name() string { return "OracleChanged" }

// AdminChangedEvent records an admin rotation.
type AdminChangedEvent struct {
	Old common.Address
	New common.Address
}

func (AdminChangedEvent) Name() string { return "AdminChanged" }

// PriceChangedEvent records an oracle price update. Old is nil when the price
// was previously unset.
type PriceChangedEvent struct {
	Old *big.Int
	New *big.Int
}

func (PriceChangedEvent) Name() string { return "PriceChanged" }
