package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategiz/internal/models"

	"gorm.io/gorm"
)

func (s *ledgerStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *ledgerStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// queryLimit maps "no limit" onto gorm's cancel value.
func queryLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *ledgerStore) FindTransactionsByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(queryLimit(limit)).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *ledgerStore) FindTransactionsByUserIDAndType(ctx context.Context, userID, txType string, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, txType).
		Order("created_at DESC").
		Limit(queryLimit(limit)).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by type: %w", err)
	}
	return txs, nil
}

func (s *ledgerStore) FindPendingTransactionsByUserID(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.TransactionStatusPending).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	return txs, nil
}

func (s *ledgerStore) FindTransactionsByReference(ctx context.Context, refType, refID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by reference: %w", err)
	}
	return txs, nil
}

func (s *ledgerStore) FindCompletedTransactionByReference(ctx context.Context, userID, refType, refID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND reference_type = ? AND reference_id = ? AND status = ?",
			userID, refType, refID, models.TransactionStatusCompleted).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to look up transaction by reference: %w", err)
	}
	return &tx, nil
}

func (s *ledgerStore) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.TransactionStatusCompleted || status == models.TransactionStatusFailed {
		now := time.Now()
		updates["completed_at"] = &now
	}
	result := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either missing or already terminal; distinguish for the caller.
		var tx models.Transaction
		if err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
			return ErrTransactionNotFound
		}
		return ErrTransactionFinal
	}
	return nil
}

func (s *ledgerStore) DeleteTransactionsByUserID(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Transaction{}).Error; err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}
