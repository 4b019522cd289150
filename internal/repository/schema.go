package repository

import (
	"context"
	"fmt"
	"strings"
)

// Migrations returns the schema statements for dialect, one statement each.
// Both dialects enforce the same constraints: one entry per obligation per
// month, exactly one parent per entry, one transaction per entry.
func Migrations(dialect Dialect) []string {
	id := "BIGSERIAL PRIMARY KEY"
	ref := "BIGINT"
	ts := "TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if dialect == SQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
		ref = "INTEGER"
		ts = "TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP"
	}
	r := strings.NewReplacer("{id}", id, "{ref}", ref, "{ts}", ts)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id              {id},
			name            TEXT NOT NULL,
			type            TEXT NOT NULL CHECK (type IN ('debit', 'credit')),
			opening_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
			billing_day     INTEGER CHECK (billing_day BETWEEN 1 AND 31),
			credit_limit    NUMERIC(14,2),
			created_at      {ts}
		)`,

		`CREATE TABLE IF NOT EXISTS billers (
			id                 {id},
			name               TEXT NOT NULL,
			amount             NUMERIC(14,2) NOT NULL,
			account_id         {ref} NOT NULL REFERENCES accounts(id),
			timing             TEXT NOT NULL DEFAULT '1/2',
			active             BOOLEAN NOT NULL DEFAULT TRUE,
			activation_month   TEXT NOT NULL,
			activation_year    INTEGER NOT NULL,
			deactivation_month TEXT,
			deactivation_year  INTEGER,
			credit_account_id  {ref} REFERENCES accounts(id),
			created_at         {ts}
		)`,

		`CREATE TABLE IF NOT EXISTS installments (
			id              {id},
			name            TEXT NOT NULL,
			monthly_payment NUMERIC(14,2) NOT NULL,
			account_id      {ref} NOT NULL REFERENCES accounts(id),
			timing          TEXT NOT NULL DEFAULT '1/2',
			active          BOOLEAN NOT NULL DEFAULT TRUE,
			total_principal NUMERIC(14,2) NOT NULL,
			term_months     INTEGER NOT NULL CHECK (term_months > 0),
			start_month     TEXT NOT NULL,
			start_year      INTEGER NOT NULL,
			created_at      {ts}
		)`,

		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id                    {id},
			biller_id             {ref} REFERENCES billers(id) ON DELETE CASCADE,
			installment_id        {ref} REFERENCES installments(id) ON DELETE CASCADE,
			month                 TEXT NOT NULL,
			year                  INTEGER NOT NULL,
			expected_amount       NUMERIC(14,2) NOT NULL,
			settled_amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
			settled_date          DATE,
			settlement_account_id {ref} REFERENCES accounts(id) ON DELETE SET NULL,
			receipt               TEXT,
			CHECK ((biller_id IS NULL) <> (installment_id IS NULL)),
			UNIQUE (biller_id, month, year),
			UNIQUE (installment_id, month, year)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_period ON schedule_entries(year, month)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id                {id},
			name              TEXT NOT NULL,
			date              DATE NOT NULL,
			amount            NUMERIC(14,2) NOT NULL,
			account_id        {ref} NOT NULL REFERENCES accounts(id),
			schedule_entry_id {ref} UNIQUE REFERENCES schedule_entries(id) ON DELETE SET NULL,
			created_at        {ts}
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date)`,
	}
	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// Migrate applies the schema. It is safe to run repeatedly.
func (r *Repository) Migrate(ctx context.Context) error {
	for i, stmt := range Migrations(r.dialect) {
		if _, err := r.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
	}
	return nil
}
