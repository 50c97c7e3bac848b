package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories"

	"github.com/google/uuid"
)

// walletNamespace seeds the deterministic wallet id derivation. Two
// concurrent first-access creators compute the same id, so the store's
// unique constraint collapses the race to a single row.
var walletNamespace = uuid.MustParse("9f2c7d58-31e4-4c0b-8a77-5b1f0f3d9e21")

// WalletID returns the canonical wallet id for a user.
func WalletID(userID string) string {
	return uuid.NewSHA1(walletNamespace, []byte(userID)).String()
}

type service struct {
	store   repositories.LedgerStore
	cache   CacheOperator
	config  Config
	metrics MetricsCollector
}

// NewService creates a new ledger service. The store is required; cache and
// metrics are optional and default to no-ops.
func NewService(store repositories.LedgerStore, cache CacheOperator, config Config, metrics MetricsCollector) Service {
	if store == nil {
		panic("store is required")
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if config.AttemptTimeout <= 0 {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	if config.CompensationAttempts <= 0 {
		config.CompensationAttempts = DefaultCompensationAttempts
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if cache == nil {
		cache = noopCache{}
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		store:   store,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

// GetOrCreateWallet returns the user's wallet, creating it on first access.
// Losing the lookup-then-create race is not an error: the loser re-reads and
// returns the winner's wallet.
func (s *service) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	wallet, err := s.store.GetWalletByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}

	wallet = &models.Wallet{
		ID:     WalletID(userID),
		UserID: userID,
		Status: models.WalletStatusActive,
	}
	if err := s.store.CreateWallet(ctx, wallet); err != nil {
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			return s.store.GetWalletByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, id string) (*models.Wallet, error) {
	wallet, err := s.store.GetWallet(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	if cached := s.getCachedWallet(ctx, userID); cached != nil {
		return cached, nil
	}

	wallet, err := s.store.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	s.cacheWallet(ctx, wallet)
	return wallet, nil
}

func (s *service) SuspendWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.mutateWallet(ctx, "suspend", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		w.Status = models.WalletStatusSuspended
		return nil, nil
	})
}

func (s *service) ReactivateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.mutateWallet(ctx, "reactivate", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		w.Status = models.WalletStatusActive
		return nil, nil
	})
}

func (s *service) SetExternalAddress(ctx context.Context, userID, address string) (*models.Wallet, error) {
	return s.mutateWallet(ctx, "set_external_address", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		w.ExternalWalletAddress = address
		return nil, nil
	})
}

// DeleteWallet hard-deletes the wallet row. Transaction history survives
// until the caller purges it explicitly; the split keeps retention policy a
// product decision rather than a ledger one.
func (s *service) DeleteWallet(ctx context.Context, userID string) error {
	if err := s.store.DeleteWalletByUserID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	s.invalidateWalletCache(ctx, userID)
	return nil
}

func (s *service) PurgeTransactions(ctx context.Context, userID string) error {
	if err := s.store.DeleteTransactionsByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to purge transactions: %w", err)
	}
	return nil
}

// newTransaction builds a ledger record for a committed mutation.
func newTransaction(userID, txType string, amount, balanceAfter int64, ref Reference, description string) *models.Transaction {
	now := time.Now()
	return &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		Description:   description,
		Status:        models.TransactionStatusCompleted,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
}
