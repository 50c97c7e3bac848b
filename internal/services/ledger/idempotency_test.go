package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"strategiz/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditOnce(t *testing.T) {
	ctx := context.Background()
	ref := Reference{Type: models.RefStripe, ID: "cs_test_123"}

	t.Run("applies the first time", func(t *testing.T) {
		svc, _ := newTestService(t)
		w, err := svc.CreditOnce(ctx, "user-1", 100, ref, "Token purchase")
		require.NoError(t, err)
		assert.Equal(t, int64(100), w.Balance)
	})

	t.Run("replay is a no-op, not an error", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreditOnce(ctx, "user-1", 100, ref, "Token purchase")
		require.NoError(t, err)

		w, err := svc.CreditOnce(ctx, "user-1", 100, ref, "Token purchase")
		require.NoError(t, err)
		assert.Equal(t, int64(100), w.Balance)

		txs, err := svc.GetTransactionsByReference(ctx, ref.Type, ref.ID)
		require.NoError(t, err)
		assert.Len(t, txs, 1, "reference applied exactly once")
	})

	t.Run("distinct references both apply", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreditOnce(ctx, "user-1", 100, Reference{Type: models.RefReward, ID: "r-1"}, "")
		require.NoError(t, err)
		w, err := svc.CreditOnce(ctx, "user-1", 50, Reference{Type: models.RefReward, ID: "r-2"}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(150), w.Balance)
	})

	t.Run("requires a reference id", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.CreditOnce(ctx, "user-1", 100, Reference{Type: models.RefReward}, "")
		assert.ErrorIs(t, err, ErrReferenceRequired)
	})

	t.Run("concurrent replays apply exactly once", func(t *testing.T) {
		svc, _ := newTestService(t)

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.CreditOnce(ctx, "user-1", 100, ref, "Token purchase")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		w, err := svc.GetWalletByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(100), w.Balance)

		txs, err := svc.GetTransactionsByReference(ctx, ref.Type, ref.ID)
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})

	t.Run("mixed references under concurrency", func(t *testing.T) {
		svc, _ := newTestService(t)

		const refs = 10
		const replays = 5
		var wg sync.WaitGroup
		for r := 0; r < refs; r++ {
			id := fmt.Sprintf("session-%d", r)
			for j := 0; j < replays; j++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.CreditOnce(ctx, "user-1", 10, Reference{Type: models.RefAIUsage, ID: id}, "")
					assert.NoError(t, err)
				}()
			}
		}
		wg.Wait()

		w, err := svc.GetWalletByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(10*refs), w.Balance)
	})
}

func TestCreditPurchase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ref := Reference{Type: models.RefStripe, ID: "cs_test_456"}

	w, err := svc.CreditPurchase(ctx, "user-1", 500, ref, "500 STRAT pack")
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)
	assert.Equal(t, int64(500), w.TotalPurchased)
	assert.Equal(t, int64(0), w.TotalEarned)

	txs, err := svc.GetTransactionsByType(ctx, "user-1", models.TransactionTypePurchase, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionStatusCompleted, txs[0].Status)
	assert.Equal(t, ref.ID, txs[0].ReferenceID)

	// Webhook redelivery.
	w, err = svc.CreditPurchase(ctx, "user-1", 500, ref, "500 STRAT pack")
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)
	assert.Equal(t, int64(500), w.TotalPurchased)
}
