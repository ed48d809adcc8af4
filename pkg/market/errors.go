package market

import (
	"errors"

	"github.com/chatten/compute-engine/pkg/access"
	"github.com/chatten/compute-engine/pkg/config"
	"github.com/chatten/compute-engine/pkg/ledger"
	"github.com/chatten/compute-engine/pkg/reserve"
)

// ErrNoMetricsSource is returned by MintFromSource when the engine was
// constructed without a metrics source.
var ErrNoMetricsSource = errors.New("no metrics source configured")

// IsAuthorizationError reports whether err means the caller lacks the role
// or token rights the operation requires.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, access.ErrNotAdmin) ||
		errors.Is(err, access.ErrNotOracle) ||
		errors.Is(err, ledger.ErrNotOwner) ||
		errors.Is(err, ledger.ErrNotAuthorized)
}

// IsStateError reports whether err means the engine is in a state that
// forbids the operation, currently only the pause flag.
func IsStateError(err error) bool {
	return errors.Is(err, access.ErrPaused)
}

// IsValidationError reports whether err means the operation's inputs were
// rejected before any state change.
func IsValidationError(err error) bool {
	return errors.Is(err, ledger.ErrTokenNotFound) ||
		errors.Is(err, ledger.ErrQualityTooLow) ||
		errors.Is(err, ledger.ErrInvalidQuality) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, reserve.ErrPriceUnset) ||
		errors.Is(err, reserve.ErrPaymentTooSmall) ||
		errors.Is(err, reserve.ErrInvalidAmount) ||
		errors.Is(err, reserve.ErrInvalidFeeRate) ||
		errors.Is(err, config.ErrWeightsInvalid)
}

// IsResourceError reports whether err means the reserve cannot cover the
// requested payout or withdrawal.
func IsResourceError(err error) bool {
	return errors.Is(err, reserve.ErrInsufficientReserve)
}
