package ledger

import "errors"

// Service errors
var (
	ErrInvalidAmount                = errors.New("invalid amount")
	ErrInvalidUserID                = errors.New("user id is required")
	ErrInsufficientBalance          = errors.New("insufficient balance")
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrWalletNotFound               = errors.New("wallet not found")
	ErrWalletSuspended              = errors.New("wallet is suspended")
	ErrSelfTransfer                 = errors.New("cannot transfer to self")
	ErrReferenceRequired            = errors.New("reference id is required")
	// ErrConcurrencyExhausted surfaces after the configured number of
	// optimistic retries. It signals contention, not corruption.
	ErrConcurrencyExhausted = errors.New("wallet contention: retries exhausted")
	// ErrTransferCompensationFailed is the paging-worthy case: a transfer's
	// debit committed but neither the destination credit nor the
	// compensating refund could be applied within the retry bound. The
	// engine keeps retrying in the background; the funds are never dropped.
	ErrTransferCompensationFailed = errors.New("transfer compensation failed")
)

// errDuplicateReference is an internal signal, never surfaced: the reference
// was already applied, so the guard reports success with the current wallet.
var errDuplicateReference = errors.New("reference already applied")
