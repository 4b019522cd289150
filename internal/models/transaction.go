package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger row. Amount is signed from the account's point of
// view: negative is money leaving the account.
type Transaction struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	AccountID       int64           `json:"account_id"`
	ScheduleEntryID *int64          `json:"schedule_entry_id,omitempty"`
}

// Magnitude is the unsigned amount used when settling schedule entries.
func (t Transaction) Magnitude() decimal.Decimal { return t.Amount.Abs() }

// Linked reports whether the transaction settles a schedule entry.
func (t Transaction) Linked() bool { return t.ScheduleEntryID != nil }

// TransactionPatch lists the amendable fields of a transaction. Nil fields are
// left unchanged.
type TransactionPatch struct {
	Name   *string          `json:"name,omitempty"`
	Date   *time.Time       `json:"date,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}
