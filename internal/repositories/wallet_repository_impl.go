package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategiz/internal/models"

	"gorm.io/gorm"
)

type ledgerStore struct {
	db *gorm.DB
}

// NewLedgerStore returns a LedgerStore backed by Postgres via GORM. The
// *gorm.DB must be opened with TranslateError enabled so unique-constraint
// violations surface as gorm.ErrDuplicatedKey.
func NewLedgerStore(db *gorm.DB) LedgerStore {
	return &ledgerStore{db: db}
}

// Atomic runs fn inside a database transaction. The LedgerStore handed to fn
// shares that transaction, so a wallet CAS update and its transaction record
// commit or roll back together.
func (s *ledgerStore) Atomic(ctx context.Context, fn func(LedgerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerStore{db: tx})
	})
}

func (s *ledgerStore) CreateWallet(ctx context.Context, w *models.Wallet) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateWallet
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (s *ledgerStore) GetWallet(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).First(&wallet, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (s *ledgerStore) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (s *ledgerStore) UpdateWalletVersioned(ctx context.Context, w *models.Wallet) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version).
		Updates(map[string]interface{}{
			"balance":                 w.Balance,
			"locked_balance":          w.LockedBalance,
			"total_earned":            w.TotalEarned,
			"total_spent":             w.TotalSpent,
			"total_purchased":         w.TotalPurchased,
			"external_wallet_address": w.ExternalWalletAddress,
			"status":                  w.Status,
			"version":                 w.Version + 1,
			"updated_at":              now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	w.Version++
	w.UpdatedAt = now
	return nil
}

func (s *ledgerStore) DeleteWalletByUserID(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Wallet{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}
