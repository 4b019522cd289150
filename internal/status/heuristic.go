package status

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/models"
)

// MinNameOverlap is the shortest name that may participate in a match.
const MinNameOverlap = 3

// AmountTolerance is how far a candidate may stray from the expected amount.
var AmountTolerance = decimal.NewFromInt(1)

// NamesOverlap reports whether one name contains the other, ignoring case,
// with the contained name at least MinNameOverlap characters long.
func NamesOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	short, long := a, b
	if utf8.RuneCountInString(short) > utf8.RuneCountInString(long) {
		short, long = long, short
	}
	if utf8.RuneCountInString(short) < MinNameOverlap {
		return false
	}
	return strings.Contains(long, short)
}

// AmountMatches reports whether got is within AmountTolerance of want.
func AmountMatches(got, want decimal.Decimal) bool {
	return got.Sub(want).Abs().LessThanOrEqual(AmountTolerance)
}

// HeuristicMatch finds the first unlinked transaction that looks like the
// payment of entry. No attempt is made to choose among several candidates.
func (r *Resolver) HeuristicMatch(entry models.ScheduleEntry, name string, txns []models.Transaction) (models.Transaction, bool) {
	for _, tx := range txns {
		if tx.Linked() {
			continue
		}
		if !NamesOverlap(tx.Name, name) {
			continue
		}
		if !AmountMatches(tx.Magnitude(), entry.ExpectedAmount) {
			continue
		}
		if !r.inWindow(entry.Period, tx.Date) {
			continue
		}
		return tx, true
	}
	return models.Transaction{}, false
}

func (r *Resolver) inWindow(p models.Period, date time.Time) bool {
	if p.Contains(date) {
		return true
	}
	return r.opts.DecemberGrace && p.Month == time.January &&
		date.Month() == time.December && date.Year() == p.Year-1
}
