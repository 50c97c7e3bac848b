package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories"
)

// mutateFn validates and applies one operation to the wallet snapshot,
// returning the ledger record to append. It may be invoked multiple times
// (once per optimistic attempt, against a fresh snapshot) so it must not
// carry side effects beyond the snapshot and the returned record. A fn that
// needs the idempotency check performs it through tx before touching w and
// returns errDuplicateReference to report "already applied".
type mutateFn func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error)

// mutateWallet is the engine core: read versioned snapshot, apply, verify
// invariants, commit wallet update and transaction record as one atomic
// unit. Version conflicts and attempt timeouts retry with exponential
// backoff up to the configured bound.
func (s *service) mutateWallet(ctx context.Context, operation, userID string, fn mutateFn) (*models.Wallet, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(operation, time.Since(start))
	}()

	delay := s.config.RetryBaseDelay
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			s.metrics.RecordConflictRetry(operation)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if delay < time.Second {
				delay *= 2
			}
		}

		wallet, err := s.store.GetWalletByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return nil, ErrWalletNotFound
			}
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
		var record *models.Transaction
		err = s.store.Atomic(attemptCtx, func(tx repositories.LedgerStore) error {
			var ferr error
			record, ferr = fn(attemptCtx, tx, wallet)
			if ferr != nil {
				return ferr
			}
			if ierr := wallet.CheckInvariants(); ierr != nil {
				return ierr
			}
			if uerr := tx.UpdateWalletVersioned(attemptCtx, wallet); uerr != nil {
				return uerr
			}
			if record != nil {
				return tx.CreateTransaction(attemptCtx, record)
			}
			return nil
		})
		cancel()

		switch {
		case err == nil:
			s.invalidateWalletCache(ctx, userID)
			if record != nil {
				s.metrics.RecordTransaction(record.Type, record.Amount)
			}
			return wallet, nil
		case errors.Is(err, errDuplicateReference):
			// Already applied; the unmodified snapshot is authoritative.
			return wallet, nil
		case errors.Is(err, repositories.ErrVersionConflict),
			errors.Is(err, context.DeadlineExceeded):
			continue
		default:
			s.metrics.RecordError(operation, err.Error())
			return nil, err
		}
	}

	s.metrics.RecordError(operation, "concurrency_exhausted")
	return nil, ErrConcurrencyExhausted
}

// Credit adds earn-type tokens to the wallet, creating it on first access.
func (s *service) Credit(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}
	return s.mutateWallet(ctx, "credit", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		w.Balance += amount
		w.TotalEarned += amount
		return newTransaction(userID, models.TransactionTypeCredit, amount, w.Balance, ref, description), nil
	})
}

// Debit spends from the available balance. Locked funds are not debitable;
// a rejected attempt leaves no record and no partial effect.
func (s *service) Debit(ctx context.Context, userID string, amount int64, ref Reference, description string) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutateWallet(ctx, "debit", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		if !w.HasSufficientBalance(amount) {
			return nil, ErrInsufficientBalance
		}
		w.Balance -= amount
		w.TotalSpent += amount
		return newTransaction(userID, models.TransactionTypeDebit, -amount, w.Balance, ref, description), nil
	})
}

// LockFunds reserves part of the available balance, e.g. as escrow for a
// pending trade. The total balance is unchanged.
func (s *service) LockFunds(ctx context.Context, userID string, amount int64, ref Reference) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutateWallet(ctx, "lock", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		if w.AvailableBalance() < amount {
			return nil, ErrInsufficientAvailableBalance
		}
		w.LockedBalance += amount
		return newTransaction(userID, models.TransactionTypeLock, amount, w.Balance, ref, "Funds locked"), nil
	})
}

// UnlockFunds releases previously locked funds. Requesting more than is
// locked clamps to zero: callers may unlock a superset after partial
// consumption. Clamping is recorded as telemetry since it can also mask a
// caller bug. Unlock works on suspended wallets so escrow can always drain.
func (s *service) UnlockFunds(ctx context.Context, userID string, amount int64, ref Reference) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutateWallet(ctx, "unlock", userID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		released := amount
		if released > w.LockedBalance {
			released = w.LockedBalance
			s.metrics.RecordUnlockClamp(userID, amount, released)
			log.Printf("unlock clamped for user %s: requested %d, locked %d", userID, amount, w.LockedBalance)
		}
		w.LockedBalance -= released
		record := newTransaction(userID, models.TransactionTypeUnlock, released, w.Balance, ref, "Funds unlocked")
		if released != amount {
			record.Metadata = models.NewJSON(map[string]interface{}{"requested": amount})
		}
		return record, nil
	})
}
