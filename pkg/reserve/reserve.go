package reserve

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientReserve is returned when a debit would push the
	// reserve negative. No partial debit is applied.
	ErrInsufficientReserve = errors.New("insufficient reserve")
	// ErrPriceUnset is returned for buy/sell math while no price per
	// compute unit is configured.
	ErrPriceUnset = errors.New("price per unit not set")
	// ErrPaymentTooSmall is returned when a payment would mint zero
	// compute units.
	ErrPaymentTooSmall = errors.New("payment below price per unit")
	// ErrInvalidAmount is returned for missing, negative, or zero amounts
	// where a positive one is required.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidFeeRate is returned for fee rates outside [0, 1).
	ErrInvalidFeeRate = errors.New("fee rate out of range [0, 1)")
)

// Accountant owns the reserve balance and price configuration in the shared
// key-value store.
type Accountant struct {
	store storage.Store
}

// New returns an Accountant over the given store.
func New(store storage.Store) *Accountant {
	return &Accountant{store: store}
}

// Bootstrap writes the initial fee rate and optional price if none are
// persisted yet. Like role bootstrap, it is a no-op over existing state.
func (a *Accountant) Bootstrap(feeRate decimal.Decimal, price *big.Int) error {
	if _, ok := a.store.Get(storage.KeyFeeRate); !ok {
		if err := a.SetFeeRate(feeRate); err != nil {
			return err
		}
	}
	if price != nil {
		if _, ok := a.store.Get(storage.KeyPrice); !ok {
			if err := a.SetPrice(price); err != nil {
				return err
			}
		}
	}
	return nil
}

// Balance returns the current reserve balance.
func (a *Accountant) Balance() *big.Int {
	return storage.GetBig(a.store, storage.KeyReserve)
}

// Credit increases the reserve by a positive amount.
func (a *Accountant) Credit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	storage.PutBig(a.store, storage.KeyReserve, new(big.Int).Add(a.Balance(), amount))
	return nil
}

// Debit decreases the reserve by amount, failing with ErrInsufficientReserve
// when amount exceeds the balance. Never applies a partial debit.
func (a *Accountant) Debit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance := a.Balance()
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserve, balance, amount)
	}
	storage.PutBig(a.store, storage.KeyReserve, balance.Sub(balance, amount))
	return nil
}

// Require fails with ErrInsufficientReserve unless the reserve covers amount.
// Used to validate before any mutation happens.
func (a *Accountant) Require(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if balance := a.Balance(); balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientReserve, balance, amount)
	}
	return nil
}

// Price returns the configured price per compute unit and whether it is set.
func (a *Accountant) Price() (*big.Int, bool) {
	v, ok := a.store.Get(storage.KeyPrice)
	if !ok {
		return nil, false
	}
	return new(big.Int).SetBytes(v), true
}

// SetPrice stores a positive price per compute unit.
func (a *Accountant) SetPrice(price *big.Int) error {
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	storage.PutBig(a.store, storage.KeyPrice, price)
	return nil
}

// FeeRate returns the sell fee rate, defaulting to zero when unset.
func (a *Accountant) FeeRate() decimal.Decimal {
	v, ok := a.store.Get(storage.KeyFeeRate)
	if !ok {
		return decimal.Zero
	}
	rate, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// SetFeeRate stores the sell fee rate; it must lie in [0, 1).
func (a *Accountant) SetFeeRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s", ErrInvalidFeeRate, rate)
	}
	a.store.Put(storage.KeyFeeRate, []byte(rate.String()))
	return nil
}

// ComputeBuyMint converts a payment into compute units at the configured
// price: floor(paid / price). The remainder stays in the reserve; nothing is
// refunded. Fails with ErrPriceUnset while no price is configured and with
// ErrPaymentTooSmall when the payment would mint zero units.
func (a *Accountant) ComputeBuyMint(paid *big.Int) (*big.Int, error) {
	if paid == nil || paid.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	price, ok := a.Price()
	if !ok {
		return nil, ErrPriceUnset
	}
	if paid.Cmp(price) < 0 {
		return nil, fmt.Errorf("%w: paid %s, price %s", ErrPaymentTooSmall, paid, price)
	}
	return new(big.Int).Div(paid, price), nil
}

// ComputeSellPayout prices a sale of computeUnits at the configured price:
// gross = units * price, fee = floor(gross * feeRate), payout = gross - fee.
// Fails with ErrInsufficientReserve when the payout exceeds the reserve, so
// callers can validate before burning anything.
func (a *Accountant) ComputeSellPayout(computeUnits *big.Int) (payout, fee *big.Int, err error) {
	if computeUnits == nil || computeUnits.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	price, ok := a.Price()
	if !ok {
		return nil, nil, ErrPriceUnset
	}

	gross := new(big.Int).Mul(computeUnits, price)
	fee = decimal.NewFromBigInt(gross, 0).Mul(a.FeeRate()).Floor().BigInt()
	payout = new(big.Int).Sub(gross, fee)

	if balance := a.Balance(); balance.Cmp(payout) < 0 {
		return nil, nil, fmt.Errorf("%w: have %s, payout %s", ErrInsufficientReserve, balance, payout)
	}
	return payout, fee, nil
}
