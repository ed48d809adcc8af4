package market

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Settlement pays reserve funds out to an account in the settlement asset.
// The engine calls Transfer before touching any of its own state, so an
// implementation that fails cleanly aborts the whole operation.
type Settlement interface {
	Transfer(to common.Address, amount *big.Int) error
}

// MemorySettlement tracks per-account settlement balances in memory. It is
// the settlement used by tests and examples; production deployments plug in
// an implementation backed by their payment rail.
type MemorySettlement struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

// NewMemorySettlement returns an empty in-memory settlement.
func NewMemorySettlement() *MemorySettlement {
	return &MemorySettlement{balances: make(map[common.Address]*big.Int)}
}

// Transfer credits amount to the account. It never fails.
func (s *MemorySettlement) Transfer(to common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[to]
	if !ok {
		balance = new(big.Int)
		s.balances[to] = balance
	}
	balance.Add(balance, amount)
	return nil
}

// Balance returns the accumulated balance of an account.
func (s *MemorySettlement) Balance(account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance, ok := s.balances[account]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}
