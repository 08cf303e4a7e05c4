package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrDayExists            = errors.New("ledger day already exists for this date")
	ErrOpeningBalanceLocked = errors.New("opening balance editable only on Jan 1")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidBalance       = errors.New("invalid balance amount")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrInvalidKind          = errors.New("invalid transaction kind")
	ErrInvalidVATRate       = errors.New("invalid vat rate")
	ErrInvalidMonth         = errors.New("month must be formatted as YYYY-MM")
	ErrInvalidDate          = errors.New("date must be formatted as YYYY-MM-DD")
	ErrDateMismatch         = errors.New("date does not match the ledger day")
)
