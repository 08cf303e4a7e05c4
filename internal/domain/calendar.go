package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Month is a calendar month in UTC.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil || len(s) != len(MonthLayout) {
		return Month{}, fmt.Errorf("ParseMonth %q: %w", s, ErrInvalidMonth)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// Start is the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first day of the following month (exclusive bound).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) String() string {
	return m.Start().Format(MonthLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate %q: %w", s, ErrInvalidDate)
	}
	return t, nil
}

// SameDate compares calendar dates, ignoring time of day and location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// OpeningBalanceEditable reports whether the opening balance of a day with
// the given date may be changed. Only the first day of a year carries a
// manually set opening balance; every later day follows from it.
func OpeningBalanceEditable(date time.Time) bool {
	return date.Month() == time.January && date.Day() == 1
}
