package entities

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the causes an update or read can fail with.
type ErrorKind string

const (
	KindInvalidIdentifier    ErrorKind = "INVALID_IDENTIFIER"
	KindMissingSourceAddress ErrorKind = "MISSING_SOURCE_ADDRESS"
	KindSourceMismatch       ErrorKind = "SOURCE_MISMATCH"
	KindUpdateTooSoon        ErrorKind = "UPDATE_TOO_SOON"
	KindUntrackedPair        ErrorKind = "UNTRACKED_PAIR"
	KindInvalidPriceData     ErrorKind = "INVALID_PRICE_DATA"
	KindUpdateInProgress     ErrorKind = "UPDATE_IN_PROGRESS"
	KindSourceUnavailable    ErrorKind = "SOURCE_UNAVAILABLE"
)

// Sentinels for errors.Is. Any OracleError matches the sentinel of its kind.
var (
	ErrInvalidIdentifier    = &OracleError{Kind: KindInvalidIdentifier}
	ErrMissingSourceAddress = &OracleError{Kind: KindMissingSourceAddress}
	ErrSourceMismatch       = &OracleError{Kind: KindSourceMismatch}
	ErrUpdateTooSoon        = &OracleError{Kind: KindUpdateTooSoon}
	ErrUntrackedPair        = &OracleError{Kind: KindUntrackedPair}
	ErrInvalidPriceData     = &OracleError{Kind: KindInvalidPriceData}
	ErrUpdateInProgress     = &OracleError{Kind: KindUpdateInProgress}
	ErrSourceUnavailable    = &OracleError{Kind: KindSourceUnavailable}
)

// OracleError is returned for every rejected operation. A rejected operation never changes state.
type OracleError struct {
	Kind    ErrorKind
	Pair    PairKey
	Message string
	// RetryAt is the earliest timestamp at which an UPDATE_TOO_SOON call can succeed.
	RetryAt uint64
	Err     error
}

// NewOracleError builds an error of the given kind.
func NewOracleError(kind ErrorKind, pair PairKey, message string, err error) *OracleError {
	return &OracleError{Kind: kind, Pair: pair, Message: message, Err: err}
}

func (e *OracleError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Pair != "" {
		msg += fmt.Sprintf(" (pair %q)", string(e.Pair))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// Is matches any OracleError of the same kind.
func (e *OracleError) Is(target error) bool {
	t, ok := target.(*OracleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first OracleError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var oe *OracleError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
