package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

const accountColumns = `id, name, type, opening_balance, billing_day, credit_limit`

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	var billingDay sql.NullInt64
	if account.BillingDay != nil {
		billingDay = sql.NullInt64{Int64: int64(*account.BillingDay), Valid: true}
	}
	var limit decimal.NullDecimal
	if account.CreditLimit != nil {
		limit = decimal.NewNullDecimal(*account.CreditLimit)
	}
	query := `
		INSERT INTO accounts (name, type, opening_balance, billing_day, credit_limit)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	err := r.queryRow(ctx, query, account.Name, string(account.Type), account.OpeningBalance, billingDay, limit).
		Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID
func (r *Repository) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	row := r.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// ListAccounts returns every account ordered by ID.
func (r *Repository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a          models.Account
		typ        string
		billingDay sql.NullInt64
		limit      decimal.NullDecimal
	)
	if err := row.Scan(&a.ID, &a.Name, &typ, &a.OpeningBalance, &billingDay, &limit); err != nil {
		return nil, err
	}
	a.Type = models.AccountType(typ)
	if billingDay.Valid {
		d := int(billingDay.Int64)
		a.BillingDay = &d
	}
	if limit.Valid {
		l := limit.Decimal
		a.CreditLimit = &l
	}
	return &a, nil
}
