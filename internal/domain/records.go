// internal/domain/records.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordStatus is the admin review state shared by recharge and withdraw records.
type RecordStatus string

const (
	StatusPending    RecordStatus = "pending"
	StatusSuccessful RecordStatus = "successful"
	StatusFailed     RecordStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	return s == StatusPending || s == StatusSuccessful || s == StatusFailed
}

// RechargeRecord is a user-reported deposit awaiting admin confirmation.
// The balance is only credited on approval.
type RechargeRecord struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	PreviousBalance decimal.Decimal `db:"previous_balance" json:"previous_balance"`
	NewBalance      decimal.Decimal `db:"new_balance" json:"new_balance"`
	TransactionID   string          `db:"transaction_id" json:"transaction_id"`
	EWalletNumber   string          `db:"e_wallet_number" json:"e_wallet_number"`
	Status          RecordStatus    `db:"status" json:"status"`
	ReviewedBy      *uuid.UUID      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewRechargeRecord creates a pending recharge. Both balance snapshots carry the
// balance at request time until the record is approved.
func NewRechargeRecord(userID uuid.UUID, amount, currentBalance decimal.Decimal, transactionID, eWallet string) *RechargeRecord {
	now := time.Now().UTC()
	return &RechargeRecord{
		ID:              uuid.New(),
		UserID:          userID,
		Amount:          amount,
		PreviousBalance: currentBalance,
		NewBalance:      currentBalance,
		TransactionID:   transactionID,
		EWalletNumber:   eWallet,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// WithdrawRecord is a withdrawal whose amount was already debited at request time.
type WithdrawRecord struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	AccountID      uuid.UUID       `db:"account_id" json:"account_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Fee            decimal.Decimal `db:"fee" json:"fee"`
	AmountReceived decimal.Decimal `db:"amount_received" json:"amount_received"`
	Status         RecordStatus    `db:"status" json:"status"`
	ReviewedBy     *uuid.UUID      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewWithdrawRecord creates a pending withdrawal, deducting feeRate from the payout.
func NewWithdrawRecord(userID, accountID uuid.UUID, amount, feeRate decimal.Decimal) *WithdrawRecord {
	now := time.Now().UTC()
	fee := amount.Mul(feeRate).Round(MoneyScale)
	return &WithdrawRecord{
		ID:             uuid.New(),
		UserID:         userID,
		AccountID:      accountID,
		Amount:         amount,
		Fee:            fee,
		AmountReceived: amount.Sub(fee),
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// WithdrawalAccount is a payout destination (mobile money wallet or bank account).
type WithdrawalAccount struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	AccountName   string    `db:"account_name" json:"account_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	Provider      string    `db:"provider" json:"provider"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewWithdrawalAccount creates a payout destination for a user.
func NewWithdrawalAccount(userID uuid.UUID, name, number, provider string) *WithdrawalAccount {
	return &WithdrawalAccount{
		ID:            uuid.New(),
		UserID:        userID,
		AccountName:   name,
		AccountNumber: number,
		Provider:      provider,
		CreatedAt:     time.Now().UTC(),
	}
}
