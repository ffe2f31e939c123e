package portfolio

import "errors"

// Two error channels: ErrInvalidArgument marks programmer-error inputs and is
// never retried; the remaining sentinels are expected trading rejections that
// the coordinator records and continues past.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientMargin = errors.New("insufficient margin")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoPosition         = errors.New("no position")
)

// IsRejection reports whether err is an expected trading-domain rejection,
// as opposed to an invalid-argument programmer error.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInsufficientMargin) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrNoPosition)
}
