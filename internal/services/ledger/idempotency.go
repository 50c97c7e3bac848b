package ledger

import (
	"context"
	"errors"

	"strategiz/internal/models"
	"strategiz/internal/repositories"
)

// CreditOnce applies an earn-type credit at most once per reference.
// Replaying the same reference returns the current wallet unchanged rather
// than erroring: payment webhooks may be delivered more than once.
func (s *service) CreditOnce(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error) {
	return s.creditIdempotent(ctx, userID, amount, models.TransactionTypeCredit, ref, description)
}

// CreditPurchase credits purchased tokens, keyed by the checkout session
// reference, bumping the purchased counter instead of the earned one.
func (s *service) CreditPurchase(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error) {
	return s.creditIdempotent(ctx, userID, amount, models.TransactionTypePurchase, ref, description)
}

// creditIdempotent runs the reference check inside the same atomic unit as
// the credit. Race safety comes from the wallet version CAS: two concurrent
// appliers of one reference race on the version, the loser retries against a
// fresh snapshot and observes the winner's COMPLETED record.
func (s *service) creditIdempotent(ctx context.Context, userID string, amount int64, txType string, ref Reference, description string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if ref.ID == "" {
		return nil, ErrReferenceRequired
	}
	if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}
	return s.mutateWallet(ctx, "credit_once", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		_, err := tx.FindCompletedTransactionByReference(ctx, userID, ref.Type, ref.ID)
		if err == nil {
			return nil, errDuplicateReference
		}
		if !errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, err
		}
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		w.Balance += amount
		if txType == models.TransactionTypePurchase {
			w.TotalPurchased += amount
		} else {
			w.TotalEarned += amount
		}
		return newTransaction(userID, txType, amount, w.Balance, ref, description), nil
	})
}
