package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves amount and retains fee", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Credit(ctx, "alice", 105, Reference{}, "")
		require.NoError(t, err)

		from, to, err := svc.Transfer(ctx, "alice", "bob", 100, 5, "Payment for strategy")
		require.NoError(t, err)
		assert.Equal(t, int64(0), from.Balance)
		assert.Equal(t, int64(105), from.TotalSpent)
		assert.Equal(t, int64(100), to.Balance)
		assert.Equal(t, int64(100), to.TotalEarned)

		debits, err := svc.GetTransactionsByType(ctx, "alice", models.TransactionTypeTransfer, 10)
		require.NoError(t, err)
		require.Len(t, debits, 1)
		assert.Equal(t, int64(-105), debits[0].Amount)
		assert.Equal(t, int64(0), debits[0].BalanceAfter)
		assert.Equal(t, models.TransactionStatusCompleted, debits[0].Status)
		assert.Equal(t, "bob", debits[0].CounterpartyID)
		assert.Equal(t, int64(5), debits[0].PlatformFee)
		require.NotNil(t, debits[0].CompletedAt)

		credits, err := svc.GetTransactionsByType(ctx, "bob", models.TransactionTypeTransfer, 10)
		require.NoError(t, err)
		require.Len(t, credits, 1)
		assert.Equal(t, int64(100), credits[0].Amount)
		assert.Equal(t, int64(100), credits[0].BalanceAfter)
		assert.Equal(t, models.TransactionStatusCompleted, credits[0].Status)
		assert.Equal(t, "alice", credits[0].CounterpartyID)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, _, err := svc.Transfer(ctx, "alice", "bob", 0, 0, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, _, err = svc.Transfer(ctx, "alice", "bob", 10, -1, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, _, err = svc.Transfer(ctx, "alice", "alice", 10, 0, "")
		assert.ErrorIs(t, err, ErrSelfTransfer)
	})

	t.Run("insufficient balance leaves both sides untouched", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Credit(ctx, "alice", 105, Reference{}, "")
		require.NoError(t, err)

		_, _, err = svc.Transfer(ctx, "alice", "bob", 101, 5, "")
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		w, err := svc.GetWalletByUserID(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(105), w.Balance)

		_, err = svc.GetWalletByUserID(ctx, "bob")
		assert.ErrorIs(t, err, ErrWalletNotFound)

		txs, err := svc.GetTransactionsByType(ctx, "alice", models.TransactionTypeTransfer, 10)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("suspended destination refunds the source", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Credit(ctx, "alice", 105, Reference{}, "")
		require.NoError(t, err)
		_, err = svc.GetOrCreateWallet(ctx, "bob")
		require.NoError(t, err)
		_, err = svc.SuspendWallet(ctx, "bob")
		require.NoError(t, err)

		_, _, err = svc.Transfer(ctx, "alice", "bob", 100, 5, "")
		assert.ErrorIs(t, err, ErrWalletSuspended)

		assertTransferCompensated(t, svc, "alice", 105)
	})

	t.Run("concurrent transfers drain exactly the balance", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Credit(ctx, "alice", 10, Reference{}, "")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := svc.Transfer(ctx, "alice", "bob", 1, 0, "")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		from, err := svc.GetWalletByUserID(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(0), from.Balance)

		to, err := svc.GetWalletByUserID(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(10), to.Balance)
	})
}

var errInjected = errors.New("injected write failure")

func TestTransferCompensation(t *testing.T) {
	ctx := context.Background()

	t.Run("failed credit side refunds the source", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewService(store, nil, Config{
			MaxAttempts:    100,
			RetryBaseDelay: 1,
		}, nil)

		_, err := svc.Credit(ctx, "alice", 105, Reference{}, "")
		require.NoError(t, err)

		store.CreateTransactionHook = func(tx *models.Transaction) error {
			if tx.UserID == "bob" {
				return errInjected
			}
			return nil
		}

		_, _, err = svc.Transfer(ctx, "alice", "bob", 100, 5, "")
		assert.ErrorIs(t, err, errInjected)

		assertTransferCompensated(t, svc, "alice", 105)
	})

	t.Run("compensation retries in the background until it sticks", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewService(store, nil, Config{
			MaxAttempts:          100,
			RetryBaseDelay:       1,
			AttemptTimeout:       50 * time.Millisecond,
			CompensationAttempts: 2,
		}, nil)

		_, err := svc.Credit(ctx, "alice", 105, Reference{}, "")
		require.NoError(t, err)

		// The destination write always fails; the refund write fails long
		// enough to exhaust the inline attempts, then recovers.
		var refundAttempts atomic.Int32
		store.CreateTransactionHook = func(tx *models.Transaction) error {
			if tx.UserID == "bob" {
				return errInjected
			}
			if tx.ReferenceType == models.RefCompensation && refundAttempts.Add(1) <= 2 {
				return errInjected
			}
			return nil
		}

		_, _, err = svc.Transfer(ctx, "alice", "bob", 100, 5, "")
		assert.ErrorIs(t, err, ErrTransferCompensationFailed)

		require.Eventually(t, func() bool {
			w, err := svc.GetWalletByUserID(ctx, "alice")
			return err == nil && w.Balance == 105
		}, 2*time.Second, 10*time.Millisecond, "background compensation must land")

		assertTransferCompensated(t, svc, "alice", 105)
	})
}

// assertTransferCompensated verifies the source wallet was made whole: balance
// restored, debit record FAILED, and exactly one reversal credit referencing
// the debit.
func assertTransferCompensated(t *testing.T, svc Service, userID string, balance int64) {
	t.Helper()
	ctx := context.Background()

	w, err := svc.GetWalletByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, balance, w.Balance)

	debits, err := svc.GetTransactionsByType(ctx, userID, models.TransactionTypeTransfer, 10)
	require.NoError(t, err)
	require.Len(t, debits, 1)
	assert.Equal(t, models.TransactionStatusFailed, debits[0].Status)

	reversals, err := svc.GetTransactionsByReference(ctx, models.RefCompensation, debits[0].ID)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	assert.Equal(t, models.TransactionTypeCredit, reversals[0].Type)
	assert.Equal(t, -debits[0].Amount, reversals[0].Amount)

	pending, err := svc.GetPendingTransactions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
