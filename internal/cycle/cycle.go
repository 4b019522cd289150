// Package cycle computes billing-cycle windows of revolving-credit accounts
// and the spending that falls inside them.
package cycle

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

// Window is an inclusive date range [Start, End] whose statement is due in Due.
type Window struct {
	Start time.Time
	End   time.Time
	Due   models.Period
}

// Contains reports whether t's calendar date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return models.DateRange{From: w.Start, To: w.End}.Contains(t)
}

func validDay(billingDay int) error {
	if billingDay < 1 || billingDay > 31 {
		return apperr.NewValidation("billing_day", "must be between 1 and 31, got %d", billingDay)
	}
	return nil
}

// endIn returns the closing date that falls in month q: day billingDay-1,
// clipped to the month's length. Billing day 1 closes on the last day of q.
func endIn(billingDay int, q models.Period) time.Time {
	day := billingDay - 1
	if day == 0 || day > q.Days() {
		day = q.Days()
	}
	return time.Date(q.Year, q.Month, day, 0, 0, 0, 0, time.UTC)
}

// ForDue returns the cycle whose statement is due in month due. The cycle
// closes on day billingDay-1 of the month before due (clipped) and starts the
// day after the previous cycle closed, so consecutive windows never overlap.
// With billingDay 31 a cycle closing in May starts May 1, not April 30.
func ForDue(billingDay int, due models.Period) (Window, error) {
	if err := validDay(billingDay); err != nil {
		return Window{}, err
	}
	closing := due.AddMonths(-1)
	end := endIn(billingDay, closing)
	start := endIn(billingDay, closing.AddMonths(-1)).AddDate(0, 0, 1)
	return Window{Start: start, End: end, Due: due}, nil
}

// DueFor returns the due month of the cycle containing t.
func DueFor(billingDay int, t time.Time) (models.Period, error) {
	if err := validDay(billingDay); err != nil {
		return models.Period{}, err
	}
	q := models.PeriodOf(t)
	if !models.Day(t).After(endIn(billingDay, q)) {
		return q.AddMonths(1), nil
	}
	return q.AddMonths(2), nil
}

// Recent returns the n cycles ending with the one that contains now, oldest first.
func Recent(billingDay, n int, now time.Time) ([]Window, error) {
	if n <= 0 {
		return nil, apperr.NewValidation("cycles", "must be positive, got %d", n)
	}
	last, err := DueFor(billingDay, now)
	if err != nil {
		return nil, err
	}
	out := make([]Window, 0, n)
	for i := n - 1; i >= 0; i-- {
		w, err := ForDue(billingDay, last.AddMonths(-i))
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Total sums the charges (negative amounts) of txns inside w, skipping any
// transaction excluded reports true for. An empty window totals zero.
func Total(w Window, txns []models.Transaction, excluded func(models.Transaction) bool) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txns {
		if !tx.Amount.IsNegative() || !w.Contains(tx.Date) {
			continue
		}
		if excluded != nil && excluded(tx) {
			continue
		}
		total = total.Add(tx.Amount.Neg())
	}
	return total
}

// Totals applies Total to every window.
func Totals(windows []Window, txns []models.Transaction, excluded func(models.Transaction) bool) []models.CycleTotal {
	out := make([]models.CycleTotal, 0, len(windows))
	for _, w := range windows {
		out = append(out, models.CycleTotal{
			CycleStart: w.Start,
			CycleEnd:   w.End,
			Total:      Total(w, txns, excluded),
			Due:        w.Due,
		})
	}
	return out
}
