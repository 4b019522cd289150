package models

import "github.com/shopspring/decimal"

// AccountType distinguishes deposit-like accounts from revolving credit.
type AccountType string

const (
	AccountTypeDebit  AccountType = "debit"
	AccountTypeCredit AccountType = "credit"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountTypeDebit || t == AccountTypeCredit
}

// Account is a funding account. Its balance is never stored; see AccountSummary.
type Account struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Type           AccountType      `json:"type"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	BillingDay     *int             `json:"billing_day,omitempty"`  // credit accounts only, 1-31
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"` // credit accounts only
}

// IsCredit reports whether the account is revolving credit.
func (a Account) IsCredit() bool { return a.Type == AccountTypeCredit }

// HasBillingCycle reports whether credit-cycle aggregation applies to the account.
func (a Account) HasBillingCycle() bool {
	return a.IsCredit() && a.BillingDay != nil && *a.BillingDay >= 1 && *a.BillingDay <= 31
}

// AccountSummary is an account with its derived balance.
type AccountSummary struct {
	Account
	Balance         decimal.Decimal  `json:"balance"`
	AvailableCredit *decimal.Decimal `json:"available_credit,omitempty"`
}
