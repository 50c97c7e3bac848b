package ledger

import (
	"context"

	"strategiz/internal/models"
)

// Service defines the wallet ledger interface consumed by webhooks, billing
// and the controller layer.
type Service interface {
	// Wallet management
	GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetWallet(ctx context.Context, id string) (*models.Wallet, error)
	GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	SuspendWallet(ctx context.Context, userID string) (*models.Wallet, error)
	ReactivateWallet(ctx context.Context, userID string) (*models.Wallet, error)
	SetExternalAddress(ctx context.Context, userID, address string) (*models.Wallet, error)
	DeleteWallet(ctx context.Context, userID string) error
	PurgeTransactions(ctx context.Context, userID string) error

	// Balance operations
	Credit(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error)
	Debit(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error)
	LockFunds(ctx context.Context, userID string, amount int64, ref Reference) (*models.Wallet, error)
	UnlockFunds(ctx context.Context, userID string, amount int64, ref Reference) (*models.Wallet, error)
	Transfer(ctx context.Context, fromUserID, toUserID string, amount, platformFee int64, description string) (*models.Wallet, *models.Wallet, error)

	// Idempotent crediting from external payment events
	CreditOnce(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error)
	CreditPurchase(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error)

	// Read-only projections
	GetTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error)
	GetTransactionsByType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error)
	GetPendingTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	GetTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error)
}
