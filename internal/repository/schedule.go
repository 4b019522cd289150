package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

const entryColumns = `id, biller_id, installment_id, month, year, expected_amount, settled_amount,
	settled_date, settlement_account_id, receipt`

// UpsertMode controls what happens when an entry for (parent, month, year) exists.
type UpsertMode int

const (
	// KeepExisting leaves existing rows untouched.
	KeepExisting UpsertMode = iota
	// RefreshUnsettled rewrites the expected amount of existing rows that
	// carry no settlement. Settled rows are never touched.
	RefreshUnsettled
)

// UpsertEntries writes entries keyed on (parent, month, year) and returns the
// number of rows inserted or refreshed. Settlement fields of existing rows are
// never modified.
func (r *Repository) UpsertEntries(ctx context.Context, entries []models.ScheduleEntry, mode UpsertMode) (int, error) {
	total := 0
	for _, e := range entries {
		parent, err := e.Parent()
		if err != nil {
			return total, apperr.NewValidation("parent", "%v", err)
		}
		target := "biller_id"
		if parent.Kind == models.KindInstallment {
			target = "installment_id"
		}
		onConflict := `DO NOTHING`
		if mode == RefreshUnsettled {
			onConflict = `DO UPDATE SET expected_amount = excluded.expected_amount
				WHERE schedule_entries.settled_amount = 0
				AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.schedule_entry_id = schedule_entries.id)`
		}
		query := `
			INSERT INTO schedule_entries (biller_id, installment_id, month, year, expected_amount, settled_amount)
			VALUES (?, ?, ?, ?, ?, 0)
			ON CONFLICT (` + target + `, month, year) ` + onConflict
		res, err := r.exec(ctx, query, nullInt(e.BillerID), nullInt(e.InstallmentID),
			e.Period.Month.String(), e.Period.Year, e.ExpectedAmount)
		if err != nil {
			return total, fmt.Errorf("failed to upsert schedule entry %s for %s: %w", e.Period, parent, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to read upsert result: %w", err)
		}
		total += int(n)
	}
	return total, nil
}

// GetEntry retrieves a schedule entry by ID.
func (r *Repository) GetEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	e, err := scanEntry(r.queryRow(ctx, `SELECT `+entryColumns+` FROM schedule_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{
			Entity: "schedule entry",
			ID:     id,
			Hint:   "this obligation has no schedule for this period yet, regenerate or recreate it",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule entry %d: %w", id, err)
	}
	return e, nil
}

// FindEntry looks up the entry of parent for period p.
func (r *Repository) FindEntry(ctx context.Context, parent models.ParentRef, p models.Period) (*models.ScheduleEntry, error) {
	col := parentColumn(parent.Kind)
	row := r.queryRow(ctx, `SELECT `+entryColumns+` FROM schedule_entries WHERE `+col+` = ? AND month = ? AND year = ?`,
		parent.ID, p.Month.String(), p.Year)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperr.NotFoundError{
			Entity: "schedule entry of " + parent.String() + " for " + p.String(),
			Hint:   "this obligation has no schedule for this period yet, regenerate or recreate it",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule entry of %s for %s: %w", parent, p, err)
	}
	return e, nil
}

// ListEntries returns the entries of parent in calendar order.
func (r *Repository) ListEntries(ctx context.Context, parent models.ParentRef) ([]models.ScheduleEntry, error) {
	col := parentColumn(parent.Kind)
	return r.listEntries(ctx, `SELECT `+entryColumns+` FROM schedule_entries WHERE `+col+` = ?`, parent.ID)
}

// ListEntriesForPeriod returns every entry, of any obligation, for period p.
func (r *Repository) ListEntriesForPeriod(ctx context.Context, p models.Period) ([]models.ScheduleEntry, error) {
	return r.listEntries(ctx, `SELECT `+entryColumns+` FROM schedule_entries WHERE month = ? AND year = ?`,
		p.Month.String(), p.Year)
}

func (r *Repository) listEntries(ctx context.Context, query string, args ...any) ([]models.ScheduleEntry, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	// Months are stored by name, so order in Go.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// UpdateSettlement writes the cached settlement fields of e.
func (r *Repository) UpdateSettlement(ctx context.Context, e *models.ScheduleEntry) error {
	ok, err := r.execOne(ctx, `
		UPDATE schedule_entries
		SET settled_amount = ?, settled_date = ?, settlement_account_id = ?, receipt = ?
		WHERE id = ?`,
		e.SettledAmount, nullDate(e.SettledDate), nullInt(e.SettlementAccountID), nullString(e.Receipt), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update settlement of schedule entry %d: %w", e.ID, err)
	}
	if !ok {
		return apperr.NewNotFound("schedule entry", e.ID)
	}
	return nil
}

// UpdateExpectedAmount rewrites the expected amount of one entry.
func (r *Repository) UpdateExpectedAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	ok, err := r.execOne(ctx, `UPDATE schedule_entries SET expected_amount = ? WHERE id = ?`, amount, id)
	if err != nil {
		return fmt.Errorf("failed to update expected amount of schedule entry %d: %w", id, err)
	}
	if !ok {
		return apperr.NewNotFound("schedule entry", id)
	}
	return nil
}

func scanEntry(row rowScanner) (*models.ScheduleEntry, error) {
	var (
		e             models.ScheduleEntry
		billerID      sql.NullInt64
		installmentID sql.NullInt64
		month         string
		year          int
		accountID     sql.NullInt64
		receipt       sql.NullString
	)
	err := row.Scan(&e.ID, &billerID, &installmentID, &month, &year, &e.ExpectedAmount, &e.SettledAmount,
		nullDateCol{field: "settled_date", dst: &e.SettledDate}, &accountID, &receipt)
	if err != nil {
		return nil, err
	}
	if e.Period, err = periodFrom(month, year); err != nil {
		return nil, err
	}
	e.BillerID = intPtr(billerID)
	e.InstallmentID = intPtr(installmentID)
	e.SettlementAccountID = intPtr(accountID)
	e.Receipt = stringPtr(receipt)
	return &e, nil
}

func parentColumn(k models.Kind) string {
	if k == models.KindInstallment {
		return "installment_id"
	}
	return "biller_id"
}
