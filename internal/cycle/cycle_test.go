package cycle

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/models"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestForDue_MidMonthBillingDay(t *testing.T) {
	w, err := ForDue(15, models.NewPeriod(time.March, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 15), w.Start)
	assert.Equal(t, date(2026, 2, 14), w.End)
	assert.Equal(t, models.NewPeriod(time.March, 2026), w.Due)
}

func TestForDue_Day31ClipsInShortMonths(t *testing.T) {
	// Cycle closing in April (30 days).
	w, err := ForDue(31, models.NewPeriod(time.May, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 31), w.Start)
	assert.Equal(t, date(2026, 4, 30), w.End)

	// Cycle closing in February clips to the 28th; the next starts on March 1st.
	feb, err := ForDue(31, models.NewPeriod(time.March, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 2, 28), feb.End)
	mar, err := ForDue(31, models.NewPeriod(time.April, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 3, 1), mar.Start)
	assert.Equal(t, date(2026, 3, 30), mar.End)

	// April 30 already closed the previous cycle.
	may, err := ForDue(31, models.NewPeriod(time.June, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 5, 1), may.Start)
	assert.Equal(t, date(2026, 5, 30), may.End)
}

func TestForDue_Day30InLeapFebruary(t *testing.T) {
	w, err := ForDue(30, models.NewPeriod(time.March, 2028))
	require.NoError(t, err)
	assert.Equal(t, date(2028, 1, 30), w.Start)
	assert.Equal(t, date(2028, 2, 29), w.End)
}

func TestForDue_BillingDayOne(t *testing.T) {
	w, err := ForDue(1, models.NewPeriod(time.February, 2026))
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 1), w.Start)
	assert.Equal(t, date(2026, 1, 31), w.End)
}

func TestWindowsAreContiguous(t *testing.T) {
	for day := 1; day <= 31; day++ {
		ws, err := Recent(day, 24, date(2027, 6, 15))
		require.NoError(t, err)
		require.Len(t, ws, 24)
		for i := 1; i < len(ws); i++ {
			assert.Equal(t, ws[i-1].End.AddDate(0, 0, 1), ws[i].Start, "day %d cycle %d", day, i)
			assert.False(t, ws[i].End.Before(ws[i].Start), "day %d cycle %d", day, i)
			assert.Equal(t, ws[i].End.Month()%12+1, ws[i].Due.Month, "due month follows cycle end")
		}
	}
}

func TestDueFor(t *testing.T) {
	due, err := DueFor(15, date(2026, 2, 14))
	require.NoError(t, err)
	assert.Equal(t, models.NewPeriod(time.March, 2026), due)

	due, err = DueFor(15, date(2026, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, models.NewPeriod(time.April, 2026), due)

	due, err = DueFor(31, date(2026, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, models.NewPeriod(time.February, 2027), due)
}

func TestRecent_EndsWithCurrentCycle(t *testing.T) {
	now := date(2026, 5, 20)
	ws, err := Recent(15, 3, now)
	require.NoError(t, err)
	require.Len(t, ws, 3)
	assert.True(t, ws[2].Contains(now))
	assert.Equal(t, date(2026, 5, 15), ws[2].Start)
	assert.Equal(t, date(2026, 6, 14), ws[2].End)
	assert.Equal(t, models.NewPeriod(time.July, 2026), ws[2].Due)
	assert.Equal(t, models.NewPeriod(time.May, 2026), ws[0].Due)
}

func TestValidation(t *testing.T) {
	var verr *apperr.ValidationError
	_, err := ForDue(0, models.NewPeriod(time.March, 2026))
	assert.True(t, errors.As(err, &verr))
	_, err = ForDue(32, models.NewPeriod(time.March, 2026))
	assert.True(t, errors.As(err, &verr))
	_, err = Recent(15, 0, date(2026, 1, 1))
	assert.True(t, errors.As(err, &verr))
}

func TestTotals(t *testing.T) {
	w, err := ForDue(15, models.NewPeriod(time.March, 2026))
	require.NoError(t, err)
	empty, err := ForDue(15, models.NewPeriod(time.July, 2026))
	require.NoError(t, err)

	txns := []models.Transaction{
		{ID: 1, Name: "Groceries", Date: date(2026, 1, 15), Amount: dec("-120.50")},
		{ID: 2, Name: "Fuel", Date: date(2026, 2, 14), Amount: dec("-80")},
		{ID: 3, Name: "Laptop installment", Date: date(2026, 2, 1), Amount: dec("-3000")},
		{ID: 4, Name: "Card payment", Date: date(2026, 2, 2), Amount: dec("500")},
		{ID: 5, Name: "Too early", Date: date(2026, 1, 14), Amount: dec("-10")},
		{ID: 6, Name: "Too late", Date: date(2026, 2, 15), Amount: dec("-10")},
	}
	excluded := func(tx models.Transaction) bool { return tx.ID == 3 }

	totals := Totals([]Window{w, empty}, txns, excluded)
	require.Len(t, totals, 2)
	assert.True(t, totals[0].Total.Equal(dec("200.50")), "got %s", totals[0].Total)
	assert.Equal(t, models.NewPeriod(time.March, 2026), totals[0].Due)
	assert.True(t, totals[1].Total.IsZero())
}
