package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

const billerColumns = `id, name, amount, account_id, timing, active, activation_month, activation_year,
	deactivation_month, deactivation_year, credit_account_id`

// CreateBiller inserts a biller and sets its ID.
func (r *Repository) CreateBiller(ctx context.Context, b *models.Biller) error {
	deactMonth, deactYear := periodArgs(b.Deactivation)
	query := `
		INSERT INTO billers (name, amount, account_id, timing, active, activation_month, activation_year,
			deactivation_month, deactivation_year, credit_account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.queryRow(ctx, query, b.Name, b.Amount, b.AccountID, string(b.Timing), b.Active,
		b.Activation.Month.String(), b.Activation.Year, deactMonth, deactYear, nullInt(b.CreditAccountID)).
		Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to create biller: %w", err)
	}
	return nil
}

// UpdateBiller rewrites a biller's mutable fields. Schedule entries are untouched.
func (r *Repository) UpdateBiller(ctx context.Context, b *models.Biller) error {
	deactMonth, deactYear := periodArgs(b.Deactivation)
	ok, err := r.execOne(ctx, `
		UPDATE billers SET name = ?, amount = ?, account_id = ?, timing = ?, active = ?,
			deactivation_month = ?, deactivation_year = ?, credit_account_id = ?
		WHERE id = ?`,
		b.Name, b.Amount, b.AccountID, string(b.Timing), b.Active, deactMonth, deactYear,
		nullInt(b.CreditAccountID), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update biller %d: %w", b.ID, err)
	}
	if !ok {
		return apperr.NewNotFound("biller", b.ID)
	}
	return nil
}

// GetBiller retrieves a biller by ID.
func (r *Repository) GetBiller(ctx context.Context, id int64) (*models.Biller, error) {
	b, err := scanBiller(r.queryRow(ctx, `SELECT `+billerColumns+` FROM billers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("biller", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get biller %d: %w", id, err)
	}
	return b, nil
}

// ListBillers returns all billers ordered by ID.
func (r *Repository) ListBillers(ctx context.Context) ([]models.Biller, error) {
	rows, err := r.query(ctx, `SELECT `+billerColumns+` FROM billers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list billers: %w", err)
	}
	defer rows.Close()

	var out []models.Biller
	for rows.Next() {
		b, err := scanBiller(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan biller: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// DeleteBiller removes a biller; its schedule entries cascade.
func (r *Repository) DeleteBiller(ctx context.Context, id int64) error {
	ok, err := r.execOne(ctx, `DELETE FROM billers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete biller %d: %w", id, err)
	}
	if !ok {
		return apperr.NewNotFound("biller", id)
	}
	return nil
}

func scanBiller(row rowScanner) (*models.Biller, error) {
	var (
		b            models.Biller
		timing       string
		actMonth     string
		actYear      int
		deactMonth   sql.NullString
		deactYear    sql.NullInt64
		creditAcctID sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.Name, &b.Amount, &b.AccountID, &timing, &b.Active, &actMonth, &actYear,
		&deactMonth, &deactYear, &creditAcctID)
	if err != nil {
		return nil, err
	}
	b.Timing = models.Timing(timing)
	if b.Activation, err = periodFrom(actMonth, actYear); err != nil {
		return nil, err
	}
	if b.Deactivation, err = nullPeriod(deactMonth, deactYear); err != nil {
		return nil, err
	}
	b.CreditAccountID = intPtr(creditAcctID)
	return &b, nil
}

const installmentColumns = `id, name, monthly_payment, account_id, timing, active, total_principal, term_months,
	start_month, start_year`

// CreateInstallment inserts an installment and sets its ID.
func (r *Repository) CreateInstallment(ctx context.Context, i *models.Installment) error {
	query := `
		INSERT INTO installments (name, monthly_payment, account_id, timing, active, total_principal,
			term_months, start_month, start_year)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
	err := r.queryRow(ctx, query, i.Name, i.MonthlyPayment, i.AccountID, string(i.Timing), i.Active,
		i.TotalPrincipal, i.TermMonths, i.Start.Month.String(), i.Start.Year).
		Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("failed to create installment: %w", err)
	}
	return nil
}

// GetInstallment retrieves an installment by ID.
func (r *Repository) GetInstallment(ctx context.Context, id int64) (*models.Installment, error) {
	i, err := scanInstallment(r.queryRow(ctx, `SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("installment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment %d: %w", id, err)
	}
	return i, nil
}

// ListInstallments returns installments, optionally only those paid from accountID.
func (r *Repository) ListInstallments(ctx context.Context, accountID *int64) ([]models.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments`
	var args []any
	if accountID != nil {
		query += ` WHERE account_id = ?`
		args = append(args, *accountID)
	}
	rows, err := r.query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	var out []models.Installment
	for rows.Next() {
		i, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// DeleteInstallment removes an installment; its schedule entries cascade.
func (r *Repository) DeleteInstallment(ctx context.Context, id int64) error {
	ok, err := r.execOne(ctx, `DELETE FROM installments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete installment %d: %w", id, err)
	}
	if !ok {
		return apperr.NewNotFound("installment", id)
	}
	return nil
}

func scanInstallment(row rowScanner) (*models.Installment, error) {
	var (
		i          models.Installment
		timing     string
		startMonth string
		startYear  int
	)
	err := row.Scan(&i.ID, &i.Name, &i.MonthlyPayment, &i.AccountID, &timing, &i.Active, &i.TotalPrincipal,
		&i.TermMonths, &startMonth, &startYear)
	if err != nil {
		return nil, err
	}
	i.Timing = models.Timing(timing)
	if i.Start, err = periodFrom(startMonth, startYear); err != nil {
		return nil, err
	}
	return &i, nil
}

func periodArgs(p *models.Period) (sql.NullString, sql.NullInt64) {
	if p == nil {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: p.Month.String(), Valid: true}, sql.NullInt64{Int64: int64(p.Year), Valid: true}
}
