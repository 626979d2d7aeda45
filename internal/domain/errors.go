package domain

import (
	"errors"
	"fmt"
)

// Wallet errors. Validation errors are returned to the caller and never
// retried; network errors are retried by the fetcher first.
var (
	// ErrInvalidAddress is returned for a malformed recipient address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount is returned for non-numeric, zero or negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance is returned when the amount exceeds the
	// displayed balance. It matches ErrInvalidAmount with errors.Is.
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrInvalidAmount)

	// ErrTransientNetwork wraps the last failure of a retried read.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrMaxRetriesExceeded is returned when the retry budget is spent on
	// rate-limited responses.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrTransactionRejected wraps submission or confirmation failures.
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrNotConnected is returned when an operation needs a connected address.
	ErrNotConnected = errors.New("wallet not connected")
)
