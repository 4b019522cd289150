package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

// CreateAccount creates a funding account.
func (s *Service) CreateAccount(ctx context.Context, a *models.Account) (*models.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	if a.Type == "" {
		a.Type = models.AccountTypeDebit
	}
	if !a.Type.Valid() {
		return nil, apperr.NewValidation("type", "must be %q or %q, got %q", models.AccountTypeDebit, models.AccountTypeCredit, a.Type)
	}
	if !a.IsCredit() && (a.BillingDay != nil || a.CreditLimit != nil) {
		return nil, apperr.NewValidation("type", "billing day and credit limit apply to credit accounts only")
	}
	if a.BillingDay != nil && (*a.BillingDay < 1 || *a.BillingDay > 31) {
		return nil, apperr.NewValidation("billing_day", "must be between 1 and 31, got %d", *a.BillingDay)
	}
	if a.CreditLimit != nil && a.CreditLimit.IsNegative() {
		return nil, apperr.NewValidation("credit_limit", "must not be negative")
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	s.log.Infof("Account created: %d (%s)", a.ID, a.Type)
	return a, nil
}

// ListAccounts returns every funding account.
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// GetAccount returns an account with its derived balance.
func (s *Service) GetAccount(ctx context.Context, id int64) (*models.AccountSummary, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	balance, err := s.balance(ctx, a)
	if err != nil {
		return nil, err
	}
	sum := &models.AccountSummary{Account: *a, Balance: balance}
	if a.IsCredit() && a.CreditLimit != nil {
		avail := a.CreditLimit.Add(balance)
		sum.AvailableCredit = &avail
	}
	return sum, nil
}

// AccountBalance is the opening balance plus every transaction on the account.
func (s *Service) AccountBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return s.balance(ctx, a)
}

func (s *Service) balance(ctx context.Context, a *models.Account) (decimal.Decimal, error) {
	txns, err := s.repo.ListTransactions(ctx, a.ID, models.DateRange{})
	if err != nil {
		return decimal.Zero, err
	}
	total := a.OpeningBalance
	for _, t := range txns {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// CreateTransaction records an unlinked ledger transaction. Payments of
// schedule entries go through Settle.
func (s *Service) CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if t.ScheduleEntryID != nil {
		return nil, apperr.NewValidation("schedule_entry_id", "settle the schedule entry instead of linking by hand")
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return nil, apperr.NewValidation("name", "is required")
	}
	if t.Date.IsZero() {
		return nil, apperr.NewValidation("date", "is required")
	}
	if t.Amount.IsZero() {
		return nil, apperr.NewValidation("amount", "must not be zero")
	}
	if _, err := s.repo.GetAccount(ctx, t.AccountID); err != nil {
		return nil, err
	}
	t.Date = models.Day(t.Date)
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithField("transaction_id", t.ID).Debug("Transaction recorded")
	return t, nil
}

// ListTransactions returns an account's transactions inside an optional date range.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, dr models.DateRange) ([]models.Transaction, error) {
	if !dr.From.IsZero() && !dr.To.IsZero() && dr.To.Before(dr.From) {
		return nil, apperr.NewValidation("to", "is before from")
	}
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, accountID, dr)
}
