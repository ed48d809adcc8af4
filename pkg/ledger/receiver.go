package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Receiver is implemented by contract-capable accounts that want to be
// notified when they receive a compute token. The notification is advisory:
// returning an error (or panicking) does not affect the completed transfer.
type Receiver interface {
	// OnComputeReceived is called after a transfer to the receiver's
	// account has fully committed. data is the opaque payload the sender
	// attached to the transfer.
	OnComputeReceived(from, to common.Address, tokenID common.Hash, data []byte) error
}

// RegisterReceiver marks addr as contract-capable and attaches its payment
// notification callback. Registration is expected at engine setup time,
// before operations flow.
func (l *Ledger) RegisterReceiver(addr common.Address, r Receiver) {
	l.receivers[addr] = r
}

// ContractCapable reports whether addr has a registered receiver.
func (l *Ledger) ContractCapable(addr common.Address) bool {
	_, ok := l.receivers[addr]
	return ok
}

// notifyReceiver delivers the post-transfer notification to a registered
// receiver. Failures are logged and swallowed; panics are caught and
// reported. Ledger state is already final when this runs, so a misbehaving
// receiver cannot corrupt it.
func (l *Ledger) notifyReceiver(from, to common.Address, tokenID common.Hash, data []byte) {
	r, ok := l.receivers[to]
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("compute receiver panicked",
				zap.String("to", to.Hex()),
				zap.String("token", tokenID.Hex()),
				zap.Any("panic", rec))
		}
	}()

	if err := r.OnComputeReceived(from, to, tokenID, data); err != nil {
		zap.L().Warn("compute receiver rejected notification",
			zap.String("to", to.Hex()),
			zap.String("token", tokenID.Hex()),
			zap.Error(err))
	}
}
