package repositories

import "errors"

// Store errors
var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrDuplicateWallet signals the lookup-then-create race on first access:
	// another writer persisted a wallet for the same user first. Callers
	// re-read and use the winner's wallet.
	ErrDuplicateWallet = errors.New("wallet already exists for user")
	// ErrVersionConflict signals an optimistic-concurrency conflict: the
	// wallet row changed between snapshot read and commit. Callers retry
	// from the read step.
	ErrVersionConflict = errors.New("wallet version conflict")
	// ErrTransactionFinal rejects status changes on a transaction that has
	// already reached a terminal state. Ledger records are append-only.
	ErrTransactionFinal = errors.New("transaction already in terminal state")
)
