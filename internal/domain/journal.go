package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	VATPayableAccount = "0000"
	VATPayableLabel   = "VAT payable"
)

// JournalLine is one derived line of a monthly accounting journal.
type JournalLine struct {
	LedgerAccount string
	Label         string
	Amount        decimal.Decimal
}

// CategoryTotal is the raw sum of a month's transactions sharing a category
// and vat rate. A nil VATRate groups transactions recorded without one.
type CategoryTotal struct {
	Category string
	VATRate  *VATRate
	Amount   decimal.Decimal
}

// DayTotals holds the cash movement sums of a single ledger day.
type DayTotals struct {
	Receipts decimal.Decimal
	Expenses decimal.Decimal
	Other    decimal.Decimal
}

// ExpectedClosing is the drawer balance implied by the day's receipts and
// expenses. Movements of kind other do not touch the drawer.
func (t DayTotals) ExpectedClosing(opening decimal.Decimal) decimal.Decimal {
	return opening.Add(t.Receipts).Sub(t.Expenses)
}

type DaySummary struct {
	Day             LedgerDay
	Totals          DayTotals
	ExpectedClosing decimal.Decimal
	Difference      decimal.NullDecimal
}

type MonthSummary struct {
	Month    Month
	Days     []DaySummary
	Receipts decimal.Decimal
	Expenses decimal.Decimal
	Other    decimal.Decimal
}

// RecomputeSignal is the payload announced when an opening balance changes.
// Consumers recompute every day of the same year after Date.
type RecomputeSignal struct {
	Date time.Time
}
