// Package repositories provides the data access layer for the ledger.
// It defines the store interfaces the wallet manager and transaction engine
// depend on, plus the GORM/Postgres implementation.
package repositories

import (
	"context"

	"strategiz/internal/models"
)

// WalletRepository is keyed storage for wallet records. Writes go through
// UpdateWalletVersioned so that every balance mutation is a compare-and-swap
// on the wallet's version.
type WalletRepository interface {
	CreateWallet(ctx context.Context, w *models.Wallet) error
	GetWallet(ctx context.Context, id string) (*models.Wallet, error)
	GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	// UpdateWalletVersioned persists w conditioned on its Version being
	// unchanged in the store. On success the stored and in-memory versions
	// are advanced; otherwise ErrVersionConflict is returned and the store
	// is untouched.
	UpdateWalletVersioned(ctx context.Context, w *models.Wallet) error
	DeleteWalletByUserID(ctx context.Context, userID string) error
}

// TransactionRepository is append-only storage for ledger records.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	FindTransactionsByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	FindTransactionsByUserIDAndType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error)
	FindPendingTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error)
	FindTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error)
	// FindCompletedTransactionByReference returns the COMPLETED record for
	// (userID, refType, refID), or ErrTransactionNotFound. It backs the
	// idempotent-credit check.
	FindCompletedTransactionByReference(ctx context.Context, userID, refType, refID string) (*models.Transaction, error)
	// UpdateTransactionStatus moves a PENDING record to a terminal status.
	// Terminal records are immutable; ErrTransactionFinal otherwise.
	UpdateTransactionStatus(ctx context.Context, id, status string) error
	DeleteTransactionsByUserID(ctx context.Context, userID string) error
}

// LedgerStore is the durable store behind the transaction engine. Atomic is
// the single primitive every balance-affecting operation builds on: the
// callback runs against a transactional view of the store and either all of
// its writes commit or none do.
type LedgerStore interface {
	WalletRepository
	TransactionRepository
	Atomic(ctx context.Context, fn func(LedgerStore) error) error
}
