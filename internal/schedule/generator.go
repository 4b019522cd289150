// Package schedule generates the monthly payment slots of an obligation.
package schedule

import (
	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

// Generate returns horizon consecutive entries for o, starting at its start
// period. Every entry expects the obligation's current monthly amount.
// Entries are not persisted; the repository upserts them by (parent, month, year).
func Generate(o models.Obligation, horizon int) ([]models.ScheduleEntry, error) {
	if horizon <= 0 {
		return nil, apperr.NewValidation("horizon", "must be positive, got %d", horizon)
	}
	parent := o.Parent()
	if parent.ID <= 0 {
		return nil, apperr.NewValidation("obligation", "%s must be saved before its schedule is generated", parent.Kind)
	}
	start := o.StartPeriod()
	if !start.Valid() {
		return nil, apperr.NewValidation("start", "%s has no resolvable start month/year", parent)
	}
	amount := o.MonthlyAmount()
	if amount.IsNegative() {
		return nil, apperr.NewValidation("amount", "monthly amount of %s is negative", parent)
	}

	entries := make([]models.ScheduleEntry, 0, horizon)
	for i := 0; i < horizon; i++ {
		entries = append(entries, models.NewEntry(parent, start.AddMonths(i), amount))
	}
	return entries, nil
}

// Horizon picks the number of months to generate for o. A positive override
// wins over the obligation's own default.
func Horizon(o models.Obligation, override int) int {
	if override > 0 {
		return override
	}
	return o.DefaultHorizon()
}
