package ledger

import (
	"context"
	"fmt"

	"strategiz/internal/models"
)

// Read-only projections. These never mutate state and observe only
// committed records.

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func (s *service) GetTransactions(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	txs, err := s.store.FindTransactionsByUserID(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, nil
}

func (s *service) GetTransactionsByType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error) {
	txs, err := s.store.FindTransactionsByUserIDAndType(ctx, userID, txType, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by type: %w", err)
	}
	return txs, nil
}

func (s *service) GetPendingTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.store.FindPendingTransactionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}
	return txs, nil
}

func (s *service) GetTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error) {
	txs, err := s.store.FindTransactionsByReference(ctx, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by reference: %w", err)
	}
	return txs, nil
}
