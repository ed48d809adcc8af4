package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/chatten/compute-engine/pkg/model"
	"github.com/chatten/compute-engine/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrTokenNotFound is returned for queries and mutations on a token id
	// that does not exist.
	ErrTokenNotFound = errors.New("token not found")
	// ErrQualityTooLow is returned when a mint is attempted below the
	// ledger's minimum quality score.
	ErrQualityTooLow = errors.New("quality score below mint threshold")
	// ErrInvalidQuality is returned for quality scores outside [0, 100].
	ErrInvalidQuality = errors.New("quality score out of range")
	// ErrInvalidAmount is returned when the compute-unit amount is missing
	// or not positive.
	ErrInvalidAmount = errors.New("compute units must be positive")
	// ErrNotOwner is returned when the from account does not own the token.
	ErrNotOwner = errors.New("account does not own token")
	// ErrNotAuthorized is returned when the caller is neither the owner,
	// an approved operator, nor the token's approved spender.
	ErrNotAuthorized = errors.New("caller not authorized to transfer token")
)

// Ledger owns token existence, ownership, and metadata. All durable state
// lives in the shared key-value store; events go to the sink after the
// corresponding state change is complete.
type Ledger struct {
	store      storage.Store
	sink       model.EventSink
	minQuality int
	receivers  map[common.Address]Receiver
}

// New returns a Ledger over the given store. minQuality is the mint
// threshold; mints below it are rejected with ErrQualityTooLow.
func New(store storage.Store, sink model.EventSink, minQuality int) *Ledger {
	return &Ledger{
		store:      store,
		sink:       sink,
		minQuality: minQuality,
		receivers:  make(map[common.Address]Receiver),
	}
}

// Mint creates a fresh token owned by owner with the given mint-time
// metadata. The token id is derived from the model hash and a monotonic
// mint sequence, so it is unique even for repeated mints of one model.
// Emits a Mint event and a zero-address Transfer event.
func (l *Ledger) Mint(owner common.Address, modelHash common.Hash, quality int, units *big.Int) (model.Token, error) {
	if quality < 0 || quality > 100 {
		return model.Token{}, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	if quality < l.minQuality {
		return model.Token{}, fmt.Errorf("%w: %d < %d", ErrQualityTooLow, quality, l.minQuality)
	}
	if units == nil || units.Sign() <= 0 {
		return model.Token{}, ErrInvalidAmount
	}

	seq := storage.GetUint64(l.store, storage.KeyMintSequence) + 1
	storage.PutUint64(l.store, storage.KeyMintSequence, seq)

	token := model.Token{
		ID:    model.DeriveTokenID(modelHash, seq),
		Owner: owner,
		Metadata: model.TokenMetadata{
			ModelID:      modelHash,
			Quality:      quality,
			ComputeUnits: new(big.Int).Set(units),
		},
	}
	l.putToken(token)
	l.store.Put(ownerIndexKey(owner, token.ID), []byte{0x01})
	storage.PutUint64(l.store, storage.KeyTotalSupply, l.TotalSupply()+1)

	l.sink.Emit(model.MintEvent{
		TokenID:      token.ID,
		Owner:        owner,
		ModelID:      modelHash,
		Quality:      quality,
		ComputeUnits: new(big.Int).Set(units),
	})
	l.sink.Emit(model.TransferEvent{From: model.ZeroAddress, To: owner, TokenID: token.ID})
	return token, nil
}

// Transfer moves tokenID from from to to. The caller must be from itself, an
// operator approved by from, or the token's approved spender. The token's
// single-token approval is cleared on success. After all state is finalized
// a best-effort receiver notification is made for contract-capable
// recipients; see notifyReceiver.
func (l *Ledger) Transfer(caller, from, to common.Address, tokenID common.Hash, data []byte) error {
	token, err := l.TokenInfo(tokenID)
	if err != nil {
		return err
	}
	if token.Owner != from {
		return fmt.Errorf("%w: %s", ErrNotOwner, from.Hex())
	}
	if caller != from && !l.IsApprovedForAll(from, caller) && l.approvedSpender(tokenID) != caller {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller.Hex())
	}

	token.Owner = to
	l.putToken(token)
	l.store.Delete(ownerIndexKey(from, tokenID))
	l.store.Put(ownerIndexKey(to, tokenID), []byte{0x01})
	l.store.Delete(approvalKey(tokenID))

	l.sink.Emit(model.TransferEvent{From: from, To: to, TokenID: tokenID})

	// Ledger state is final; anything the receiver does now sees a
	// consistent ledger and cannot roll the transfer back.
	l.notifyReceiver(from, to, tokenID, data)
	return nil
}

// Approve sets spender as the single approved spender of tokenID. The caller
// must own the token. Approving the zero address clears the approval.
func (l *Ledger) Approve(caller, spender common.Address, tokenID common.Hash) error {
	token, err := l.TokenInfo(tokenID)
	if err != nil {
		return err
	}
	if token.Owner != caller {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller.Hex())
	}
	if spender == (common.Address{}) {
		l.store.Delete(approvalKey(tokenID))
		return nil
	}
	l.store.Put(approvalKey(tokenID), spender.Bytes())
	return nil
}

// SetApprovalForAll grants or revokes operator rights over all of owner's
// tokens. Pure authorization bookkeeping, no balance effects.
func (l *Ledger) SetApprovalForAll(owner, operator common.Address, approved bool) {
	key := operatorKey(owner, operator)
	if approved {
		l.store.Put(key, []byte{0x01})
		return
	}
	l.store.Delete(key)
}

// IsApprovedForAll reports whether operator may transfer any of owner's
// tokens.
func (l *Ledger) IsApprovedForAll(owner, operator common.Address) bool {
	v, ok := l.store.Get(operatorKey(owner, operator))
	return ok && len(v) == 1 && v[0] == 0x01
}

// Burn removes tokenID entirely, decrementing total supply. Authorization is
// the caller's responsibility (owner-initiated sell or admin-forced path).
// Emits a Burn event and a zero-address Transfer event. Returns the removed
// token.
func (l *Ledger) Burn(tokenID common.Hash) (model.Token, error) {
	token, err := l.TokenInfo(tokenID)
	if err != nil {
		return model.Token{}, err
	}

	l.store.Delete(storage.Join(storage.PrefixToken, tokenID.Bytes()))
	l.store.Delete(ownerIndexKey(token.Owner, tokenID))
	l.store.Delete(approvalKey(tokenID))
	storage.PutUint64(l.store, storage.KeyTotalSupply, l.TotalSupply()-1)

	l.sink.Emit(model.BurnEvent{
		TokenID:      tokenID,
		Owner:        token.Owner,
		ComputeUnits: token.Metadata.ComputeUnits,
	})
	l.sink.Emit(model.TransferEvent{From: token.Owner, To: model.ZeroAddress, TokenID: tokenID})
	return token, nil
}

// OwnerOf returns the owner of tokenID, or ErrTokenNotFound.
func (l *Ledger) OwnerOf(tokenID common.Hash) (common.Address, error) {
	token, err := l.TokenInfo(tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return token.Owner, nil
}

// TokenInfo returns the full token record, or ErrTokenNotFound. Nonexistent
// ids report the error rather than a zero-valued token.
func (l *Ledger) TokenInfo(tokenID common.Hash) (model.Token, error) {
	raw, ok := l.store.Get(storage.Join(storage.PrefixToken, tokenID.Bytes()))
	if !ok {
		return model.Token{}, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenID.Hex())
	}
	var token model.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return model.Token{}, fmt.Errorf("decode token %s: %w", tokenID.Hex(), err)
	}
	return token, nil
}

// BalanceOf returns the number of tokens owned by owner.
func (l *Ledger) BalanceOf(owner common.Address) int {
	count := 0
	l.store.Ascend(storage.Join(storage.PrefixOwnerIndex, owner.Bytes()), func(key, value []byte) bool {
		count++
		return true
	})
	return count
}

// TokensOf returns the ids of all tokens owned by owner, in deterministic
// (lexicographic) order.
func (l *Ledger) TokensOf(owner common.Address) []common.Hash {
	prefix := storage.Join(storage.PrefixOwnerIndex, owner.Bytes())
	var ids []common.Hash
	l.store.Ascend(prefix, func(key, value []byte) bool {
		ids = append(ids, common.BytesToHash(key[len(prefix):]))
		return true
	})
	return ids
}

// TotalSupply returns the number of existing tokens.
func (l *Ledger) TotalSupply() uint64 {
	return storage.GetUint64(l.store, storage.KeyTotalSupply)
}

func (l *Ledger) putToken(token model.Token) {
	raw, err := json.Marshal(token)
	if err != nil {
		// Token fields are all marshalable; this cannot happen with a
		// well-formed token.
		panic(fmt.Sprintf("encode token %s: %v", token.ID.Hex(), err))
	}
	l.store.Put(storage.Join(storage.PrefixToken, token.ID.Bytes()), raw)
}

// approvedSpender returns the token's approved spender, or the zero address
// when none is set.
func (l *Ledger) approvedSpender(tokenID common.Hash) common.Address {
	v, ok := l.store.Get(approvalKey(tokenID))
	if !ok {
		return common.Address{}
	}
	return common.BytesToAddress(v)
}

func ownerIndexKey(owner common.Address, tokenID common.Hash) []byte {
	return storage.Join(storage.PrefixOwnerIndex, owner.Bytes(), tokenID.Bytes())
}

func approvalKey(tokenID common.Hash) []byte {
	return storage.Join(storage.PrefixApproval, tokenID.Bytes())
}

func operatorKey(owner, operator common.Address) []byte {
	return storage.Join(storage.PrefixOperator, owner.Bytes(), operator.Bytes())
}
