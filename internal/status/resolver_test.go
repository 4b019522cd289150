package status

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/bills-service/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

func entry(id int64, m time.Month, y int, expected string) models.ScheduleEntry {
	e := models.NewEntry(models.ParentRef{Kind: models.KindBiller, ID: 1}, models.NewPeriod(m, y), dec(expected))
	e.ID = id
	return e
}

func TestNamesOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Electric", "ELECTRIC", true},
		{"Electric Co payment", "electric", true},
		{"elec", "Electric", true},
		{"ele", "Electric", true},
		{"El", "Electric", false},
		{"El", "El", false},
		{"Water", "Electric", false},
		{"  Netflix ", "netflix subscription", true},
		{"", "Electric", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NamesOverlap(tt.a, tt.b), "NamesOverlap(%q, %q)", tt.a, tt.b)
		assert.Equal(t, tt.want, NamesOverlap(tt.b, tt.a), "symmetric for %q, %q", tt.a, tt.b)
	}
}

func TestAmountMatches(t *testing.T) {
	assert.True(t, AmountMatches(dec("1500"), dec("1500")))
	assert.True(t, AmountMatches(dec("1501"), dec("1500")))
	assert.True(t, AmountMatches(dec("1499"), dec("1500")))
	assert.False(t, AmountMatches(dec("1501.01"), dec("1500")))
	assert.False(t, AmountMatches(dec("1498.99"), dec("1500")))
}

func TestResolve_LinkedWins(t *testing.T) {
	r := NewResolver(Options{})
	e := entry(5, time.January, 2026, "1500")
	e.SettledAmount = dec("999") // stale cache must not override linkage

	txns := []models.Transaction{
		{ID: 1, Name: "Electric", Date: date(2026, 1, 3), Amount: dec("-1500")},
		{ID: 2, Name: "Electric bill", Date: date(2026, 1, 10), Amount: dec("-1400"), ScheduleEntryID: ptr(int64(5))},
	}
	res := r.Resolve(e, "Electric", txns)
	assert.True(t, res.Settled)
	assert.Equal(t, models.SourceLinked, res.Source)
	assert.True(t, res.Amount.Equal(dec("1400")))
	require.NotNil(t, res.TransactionID)
	assert.Equal(t, int64(2), *res.TransactionID)
}

func TestResolve_LinkedSumsSplitPayments(t *testing.T) {
	r := NewResolver(Options{})
	e := entry(5, time.January, 2026, "1500")
	txns := []models.Transaction{
		{ID: 1, Amount: dec("-1000"), ScheduleEntryID: ptr(int64(5))},
		{ID: 2, Amount: dec("-500"), ScheduleEntryID: ptr(int64(5))},
		{ID: 3, Amount: dec("-700"), ScheduleEntryID: ptr(int64(6))},
	}
	res := r.Resolve(e, "Electric", txns)
	assert.True(t, res.Amount.Equal(dec("1500")))
	assert.Len(t, LinkedTo(5, txns), 2)
}

func TestResolve_ManualOverride(t *testing.T) {
	r := NewResolver(Options{})
	e := entry(5, time.February, 2026, "1500")
	e.SettledAmount = dec("1500")

	res := r.Resolve(e, "Electric", nil)
	assert.True(t, res.Settled)
	assert.Equal(t, models.SourceManual, res.Source)
	assert.True(t, res.Amount.Equal(dec("1500")))
	assert.Nil(t, res.TransactionID)
}

func TestResolve_Heuristic(t *testing.T) {
	r := NewResolver(Options{})
	e := entry(5, time.March, 2026, "1500")

	txns := []models.Transaction{
		{ID: 1, Name: "Electric", Date: date(2026, 2, 28), Amount: dec("-1500")},       // wrong month
		{ID: 2, Name: "Electric", Date: date(2026, 3, 5), Amount: dec("-1502")},        // amount off by 2
		{ID: 3, Name: "El", Date: date(2026, 3, 6), Amount: dec("-1500")},              // name too short
		{ID: 4, Name: "MERALCO Electric", Date: date(2026, 3, 7), Amount: dec("-1500.50")}, // match
		{ID: 5, Name: "Electric", Date: date(2026, 3, 8), Amount: dec("-1500")},        // later candidate
	}
	res := r.Resolve(e, "Electric", txns)
	assert.True(t, res.Settled)
	assert.Equal(t, models.SourceHeuristic, res.Source)
	require.NotNil(t, res.TransactionID)
	assert.Equal(t, int64(4), *res.TransactionID)
	assert.True(t, res.Amount.Equal(dec("1500.50")))
}

func TestResolve_HeuristicIgnoresLinkedTransactions(t *testing.T) {
	r := NewResolver(Options{})
	e := entry(5, time.March, 2026, "1500")
	txns := []models.Transaction{
		{ID: 1, Name: "Electric", Date: date(2026, 3, 5), Amount: dec("-1500"), ScheduleEntryID: ptr(int64(99))},
	}
	res := r.Resolve(e, "Electric", txns)
	assert.False(t, res.Settled)
	assert.Equal(t, models.SourceNone, res.Source)
	assert.True(t, res.Amount.IsZero())
}

func TestResolve_DecemberGraceOnlyBehindFlag(t *testing.T) {
	jan := entry(5, time.January, 2026, "1500")
	feb := entry(6, time.February, 2026, "1500")
	txns := []models.Transaction{{ID: 1, Name: "Electric", Date: date(2025, 12, 28), Amount: dec("-1500")}}

	assert.False(t, NewResolver(Options{}).IsSettled(jan, "Electric", txns))

	grace := NewResolver(Options{DecemberGrace: true})
	assert.True(t, grace.IsSettled(jan, "Electric", txns))
	assert.True(t, grace.DisplayAmount(jan, "Electric", txns).Equal(dec("1500")))

	janTx := []models.Transaction{{ID: 2, Name: "Electric", Date: date(2026, 1, 30), Amount: dec("-1500")}}
	assert.False(t, grace.IsSettled(feb, "Electric", janTx), "grace must not extend to other month boundaries")

	old := []models.Transaction{{ID: 3, Name: "Electric", Date: date(2024, 12, 28), Amount: dec("-1500")}}
	assert.False(t, grace.IsSettled(jan, "Electric", old))
}
