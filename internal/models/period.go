package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/bills-service/internal/apperr"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Period is one calendar month.
type Period struct {
	Month time.Month
	Year  int
}

// NewPeriod returns the period for month/year.
func NewPeriod(month time.Month, year int) Period {
	return Period{Month: month, Year: year}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// Valid reports whether p names a real month.
func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year > 0
}

// AddMonths advances p by n months (n may be negative), rolling the year over.
func (p Period) AddMonths(n int) Period {
	idx := int(p.Month-1) + n
	yearOffset := idx / 12
	monthIdx := idx % 12
	if monthIdx < 0 {
		monthIdx += 12
		yearOffset--
	}
	return Period{Month: time.Month(monthIdx + 1), Year: p.Year + yearOffset}
}

// Before reports whether p is strictly earlier than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Contains reports whether t falls inside the month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// FirstDay returns midnight UTC on the first day of the month.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (p Period) Days() int {
	return p.FirstDay().AddDate(0, 1, -1).Day()
}

func (p Period) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

type periodJSON struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(periodJSON{Month: p.Month.String(), Year: p.Year})
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var raw periodJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m, err := ParseMonth(raw.Month)
	if err != nil {
		return err
	}
	*p = Period{Month: m, Year: raw.Year}
	return nil
}

var monthsByName = func() map[string]time.Month {
	out := make(map[string]time.Month, 24)
	for m := time.January; m <= time.December; m++ {
		out[strings.ToLower(m.String())] = m
		out[strings.ToLower(m.String()[:3])] = m
	}
	return out
}()

// ParseMonth accepts a full or three-letter English month name in any case.
func ParseMonth(name string) (time.Month, error) {
	if m, ok := monthsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return 0, &apperr.TypeMismatchError{Field: "month", Value: name, Want: "an English month name"}
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &apperr.TypeMismatchError{Field: field, Value: s, Want: "a YYYY-MM-DD date"}
	}
	return t, nil
}

// DateRange is an inclusive date window. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t's calendar date lies within r.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	if !r.From.IsZero() && d.Before(Day(r.From)) {
		return false
	}
	if !r.To.IsZero() && d.After(Day(r.To)) {
		return false
	}
	return true
}
