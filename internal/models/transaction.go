package models

import (
	"time"
)

// Transaction types
const (
	TransactionTypeCredit   = "CREDIT"
	TransactionTypeDebit    = "DEBIT"
	TransactionTypeLock     = "LOCK"
	TransactionTypeUnlock   = "UNLOCK"
	TransactionTypeTransfer = "TRANSFER"
	TransactionTypePurchase = "PURCHASE"
)

// Transaction statuses
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// Reference types linking transactions to the external event that caused
// them. Used for idempotency checks and audit.
const (
	RefStripe          = "stripe"
	RefStratPack       = "strat_pack"
	RefReward          = "reward"
	RefSubscription    = "subscription"
	RefSubscriptionAllocation = "subscription_allocation"
	RefAIUsage         = "ai_usage"
	RefEscrow          = "escrow"
	RefCompensation    = "compensation"
)

// Transaction is an append-only ledger record. Once a transaction reaches a
// terminal status it is never mutated; corrections are recorded as new,
// opposing transactions.
type Transaction struct {
	ID             string `gorm:"primarykey" json:"id"`
	UserID         string `gorm:"index;index:idx_tx_user_status;not null" json:"userId"`
	Type           string `gorm:"not null" json:"type"`
	// Amount is the signed effect on wallet balance. LOCK/UNLOCK affect only
	// the locked balance and carry a non-negative amount.
	Amount         int64  `gorm:"not null" json:"amount"`
	BalanceAfter   int64  `gorm:"not null" json:"balanceAfter"`
	ReferenceType  string `gorm:"index:idx_tx_reference" json:"referenceType,omitempty"`
	ReferenceID    string `gorm:"index:idx_tx_reference" json:"referenceId,omitempty"`
	CounterpartyID string `json:"counterpartyId,omitempty"`
	Description    string `json:"description,omitempty"`
	PlatformFee    int64  `gorm:"default:0" json:"platformFee,omitempty"`
	Metadata       JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	Status         string `gorm:"not null;default:'PENDING';index:idx_tx_user_status" json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Terminal reports whether the transaction has reached a state that must
// never change again.
func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}
