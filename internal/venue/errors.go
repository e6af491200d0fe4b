package venue

import "errors"

// Error taxonomy shared by both venue clients and the execution path. Each
// error scopes a failure to one symbol pair within one cycle; only
// ErrUnrecoverable demands external intervention.
var (
	// ErrDataUnavailable marks a market/balance/position fetch that failed
	// or returned an error status.
	ErrDataUnavailable = errors.New("venue data unavailable")

	// ErrInsufficientBalance aborts an attempt before any order is signed.
	ErrInsufficientBalance = errors.New("insufficient tradeable balance")

	// ErrSigningFailure marks a hash or signature computation error; never
	// retried within a cycle.
	ErrSigningFailure = errors.New("order signing failed")

	// ErrOrderRejected marks a non-success order submission response.
	ErrOrderRejected = errors.New("order rejected by venue")

	// ErrUnrecoverable marks a failed compensation: the strategy now holds
	// an unintended one-sided position.
	ErrUnrecoverable = errors.New("unrecoverable one-sided position")
)
