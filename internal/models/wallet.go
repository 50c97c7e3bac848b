package models

import (
	"errors"
	"time"
)

// Wallet statuses
const (
	WalletStatusActive    = "ACTIVE"
	WalletStatusSuspended = "SUSPENDED"
)

// MicroUnits is the number of indivisible micro-units per STRAT token.
// All balances and amounts are stored as int64 micro-units; $1 = 100 STRAT.
const MicroUnits int64 = 1_000_000

// Invariant violations. These indicate a bug in the transaction engine and
// are checked before every commit.
var (
	ErrNegativeBalance      = errors.New("wallet balance below zero")
	ErrLockedExceedsBalance = errors.New("locked balance outside [0, balance]")
)

// Wallet holds a user's STRAT token balance. Exactly one wallet exists per
// user; the wallet id is derived deterministically from the user id so that
// concurrent first-access creation converges on a single row.
type Wallet struct {
	ID                    string    `gorm:"primarykey" json:"id"`
	UserID                string    `gorm:"uniqueIndex;not null" json:"userId"`
	Balance               int64     `gorm:"not null;default:0" json:"balance"`
	LockedBalance         int64     `gorm:"not null;default:0" json:"lockedBalance"`
	TotalEarned           int64     `gorm:"not null;default:0" json:"totalEarned"`
	TotalSpent            int64     `gorm:"not null;default:0" json:"totalSpent"`
	TotalPurchased        int64     `gorm:"not null;default:0" json:"totalPurchased"`
	ExternalWalletAddress string    `json:"externalWalletAddress,omitempty"`
	Status                string    `gorm:"not null;default:'ACTIVE'" json:"status"`
	Version               int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// AvailableBalance is the spendable portion: balance minus locked funds.
func (w *Wallet) AvailableBalance() int64 {
	return w.Balance - w.LockedBalance
}

// HasSufficientBalance reports whether amount can be debited without
// touching locked funds.
func (w *Wallet) HasSufficientBalance(amount int64) bool {
	return w.AvailableBalance() >= amount
}

// CheckInvariants validates the balance invariants that must hold after
// every committed mutation.
func (w *Wallet) CheckInvariants() error {
	if w.Balance < 0 {
		return ErrNegativeBalance
	}
	if w.LockedBalance < 0 || w.LockedBalance > w.Balance {
		return ErrLockedExceedsBalance
	}
	return nil
}
