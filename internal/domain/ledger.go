package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerDay is one calendar date of the cash drawer.
type LedgerDay struct {
	ID             int64
	Date           time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.NullDecimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TransactionKind string

const (
	KindReceipt TransactionKind = "receipt"
	KindExpense TransactionKind = "expense"
	KindOther   TransactionKind = "other"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case KindReceipt, KindExpense, KindOther:
		return true
	}
	return false
}

type VATRate string

const (
	VATNone VATRate = "none"
	VATLow  VATRate = "9%"
	VATHigh VATRate = "21%"
)

func (r VATRate) IsValid() bool {
	switch r {
	case VATNone, VATLow, VATHigh:
		return true
	}
	return false
}

// Transaction is a single cash movement. Amount is always positive; the
// direction follows from Kind.
type Transaction struct {
	ID          int64
	DayID       int64
	Kind        TransactionKind
	Category    string
	Amount      decimal.Decimal
	VATRate     *VATRate
	Description *string
	CreatedAt   time.Time
}
