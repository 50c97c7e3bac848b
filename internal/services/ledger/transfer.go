package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories"

	"github.com/google/uuid"
)

// Transfer moves tokens between two wallets. The source is debited
// amount+platformFee; the destination receives amount; the fee is retained
// by the platform. The store cannot span both wallets in one atomic unit, so
// the transfer runs as two: the debit (the only side that can fail on
// insufficient funds) commits first with a PENDING record, then the credit
// commits together with the debit record's completion. If the credit side
// fails, a compensating credit restores the source and the debit record is
// marked FAILED - retried until it sticks, because a credit cannot fail on
// insufficient funds and money must never sit in limbo.
func (s *service) Transfer(ctx context.Context, fromUserID, toUserID string, amount, platformFee int64, description string) (*models.Wallet, *models.Wallet, error) {
	if amount <= 0 || platformFee < 0 {
		return nil, nil, ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return nil, nil, ErrSelfTransfer
	}
	total := amount + platformFee

	debitID := uuid.NewString()
	fromWallet, err := s.mutateWallet(ctx, "transfer_debit", fromUserID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		if !w.HasSufficientBalance(total) {
			return nil, ErrInsufficientBalance
		}
		w.Balance -= total
		w.TotalSpent += total
		record := newTransaction(fromUserID, models.TransactionTypeTransfer, -total, w.Balance, Reference{}, description)
		record.ID = debitID
		record.Status = models.TransactionStatusPending
		record.CompletedAt = nil
		record.CounterpartyID = toUserID
		record.PlatformFee = platformFee
		return record, nil
	})
	if err != nil {
		return nil, nil, err
	}

	toWallet, err := s.creditTransferLeg(ctx, fromUserID, toUserID, amount, debitID, description)
	if err != nil {
		if cerr := s.compensateTransfer(ctx, fromUserID, debitID, total); cerr != nil {
			return nil, nil, cerr
		}
		return nil, nil, err
	}

	return fromWallet, toWallet, nil
}

// creditTransferLeg applies the destination side and finalizes the source's
// PENDING record in the same atomic unit, so both records reach their
// terminal state together.
func (s *service) creditTransferLeg(ctx context.Context, fromUserID, toUserID string, amount int64, debitID, description string) (*models.Wallet, error) {
	if _, err := s.GetOrCreateWallet(ctx, toUserID); err != nil {
		return nil, err
	}
	return s.mutateWallet(ctx, "transfer_credit", toUserID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
		if w.Status == models.WalletStatusSuspended {
			return nil, ErrWalletSuspended
		}
		if err := tx.UpdateTransactionStatus(ctx, debitID, models.TransactionStatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to finalize transfer debit: %w", err)
		}
		w.Balance += amount
		w.TotalEarned += amount
		record := newTransaction(toUserID, models.TransactionTypeTransfer, amount, w.Balance, Reference{}, description)
		record.CounterpartyID = fromUserID
		return record, nil
	})
}

// compensateTransfer refunds a debited source after the credit side failed:
// one atomic unit credits total back and fails the PENDING debit record. It
// survives caller cancellation - once the debit committed, the caller gave
// up the right to abandon the transfer. Exhausting the inline bound
// escalates and hands the refund to a background retry loop; it is never
// dropped.
func (s *service) compensateTransfer(ctx context.Context, fromUserID, debitID string, total int64) error {
	ctx = context.WithoutCancel(ctx)

	err := s.tryCompensate(ctx, fromUserID, debitID, total, s.config.CompensationAttempts)
	if err == nil {
		s.metrics.RecordCompensation("completed")
		return nil
	}

	s.metrics.RecordCompensation("escalated")
	log.Printf("ESCALATION: transfer compensation failing for user %s (debit %s, amount %d): %v; retrying in background",
		fromUserID, debitID, total, err)

	go func() {
		delay := s.config.AttemptTimeout
		for {
			if err := s.tryCompensate(ctx, fromUserID, debitID, total, s.config.CompensationAttempts); err == nil {
				s.metrics.RecordCompensation("recovered")
				log.Printf("transfer compensation recovered for user %s (debit %s)", fromUserID, debitID)
				return
			}
			time.Sleep(delay)
			if delay < time.Minute {
				delay *= 2
			}
		}
	}()

	return ErrTransferCompensationFailed
}

func (s *service) tryCompensate(ctx context.Context, fromUserID, debitID string, total int64, attempts int) error {
	var lastErr error
	delay := s.config.RetryBaseDelay
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		_, lastErr = s.mutateWallet(ctx, "transfer_compensate", fromUserID, func(ctx context.Context, tx repositories.LedgerStore, w *models.Wallet) (*models.Transaction, error) {
			if err := tx.UpdateTransactionStatus(ctx, debitID, models.TransactionStatusFailed); err != nil {
				// Already failed means a previous compensation attempt
				// committed; do not refund twice.
				if errors.Is(err, repositories.ErrTransactionFinal) {
					return nil, errDuplicateReference
				}
				return nil, err
			}
			w.Balance += total
			record := newTransaction(fromUserID, models.TransactionTypeCredit, total, w.Balance,
				Reference{Type: models.RefCompensation, ID: debitID}, "Transfer reversal")
			return record, nil
		})
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
