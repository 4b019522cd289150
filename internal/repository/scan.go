package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// parseStoredDate accepts what the drivers hand back for a DATE column:
// time.Time from lib/pq, text or time.Time from SQLite.
func parseStoredDate(field string, src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return models.Day(v), nil
	case []byte:
		return parseStoredDate(field, string(v))
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return models.Day(t), nil
			}
		}
	}
	return time.Time{}, &apperr.TypeMismatchError{Field: field, Value: src, Want: "a structured date"}
}

// dateCol scans a NOT NULL date column.
type dateCol struct {
	field string
	dst   *time.Time
}

func (d dateCol) Scan(src any) error {
	t, err := parseStoredDate(d.field, src)
	if err != nil {
		return err
	}
	*d.dst = t
	return nil
}

// nullDateCol scans a nullable date column into a pointer.
type nullDateCol struct {
	field string
	dst   **time.Time
}

func (d nullDateCol) Scan(src any) error {
	if src == nil {
		*d.dst = nil
		return nil
	}
	t, err := parseStoredDate(d.field, src)
	if err != nil {
		return err
	}
	*d.dst = &t
	return nil
}

func formatDate(t time.Time) string { return t.Format(models.DateLayout) }

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

// periodFrom rebuilds a period from its stored month name and year.
func periodFrom(month string, year int) (models.Period, error) {
	m, err := models.ParseMonth(month)
	if err != nil {
		return models.Period{}, err
	}
	return models.NewPeriod(m, year), nil
}

// nullPeriod rebuilds an optional period.
func nullPeriod(month sql.NullString, year sql.NullInt64) (*models.Period, error) {
	if !month.Valid || !year.Valid {
		return nil, nil
	}
	p, err := periodFrom(month.String, int(year.Int64))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// isUniqueViolation recognises unique-constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}
