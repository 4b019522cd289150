package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

const transactionColumns = `id, name, date, amount, account_id, schedule_entry_id`

// CreateTransaction inserts a ledger transaction and sets its ID. A second
// transaction for the same schedule entry fails with *apperr.DuplicateError.
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (name, date, amount, account_id, schedule_entry_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	err := r.queryRow(ctx, query, tx.Name, formatDate(tx.Date), tx.Amount, tx.AccountID, nullInt(tx.ScheduleEntryID)).
		Scan(&tx.ID)
	if err != nil {
		if tx.ScheduleEntryID != nil && isUniqueViolation(err) {
			return &apperr.DuplicateError{ScheduleEntryID: *tx.ScheduleEntryID}
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	tx, err := scanTransaction(r.queryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NewNotFound("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}
	return tx, nil
}

// ListTransactions returns the transactions of an account inside an optional
// inclusive date range, oldest first.
func (r *Repository) ListTransactions(ctx context.Context, accountID int64, dr models.DateRange) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = ?`
	args := []any{accountID}
	if !dr.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDate(dr.From))
	}
	if !dr.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDate(dr.To))
	}
	return r.listTransactions(ctx, query+` ORDER BY date, id`, args...)
}

// ListLinkedTransactions returns the transactions settling a schedule entry.
func (r *Repository) ListLinkedTransactions(ctx context.Context, entryID int64) ([]models.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE schedule_entry_id = ? ORDER BY id`, entryID)
}

func (r *Repository) listTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return out, nil
}

// UpdateTransaction rewrites name, date and amount. The schedule link is not
// amendable here.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	ok, err := r.execOne(ctx, `UPDATE transactions SET name = ?, date = ?, amount = ? WHERE id = ?`,
		tx.Name, formatDate(tx.Date), tx.Amount, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", tx.ID, err)
	}
	if !ok {
		return apperr.NewNotFound("transaction", tx.ID)
	}
	return nil
}

// DeleteTransaction removes a transaction row. Callers holding a linked
// transaction must reverse its settlement first.
func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	ok, err := r.execOne(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	if !ok {
		return apperr.NewNotFound("transaction", id)
	}
	return nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		tx      models.Transaction
		entryID sql.NullInt64
	)
	err := row.Scan(&tx.ID, &tx.Name, dateCol{field: "date", dst: &tx.Date}, &tx.Amount, &tx.AccountID, &entryID)
	if err != nil {
		return nil, err
	}
	tx.ScheduleEntryID = intPtr(entryID)
	return &tx, nil
}
