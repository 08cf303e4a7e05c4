package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func SeedDay(t *testing.T, db *sql.DB, date time.Time, opening string, closing *string) int64 {
	t.Helper()

	var closingArg any
	if closing != nil {
		closingArg = *closing
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO ledger_days (date, opening_balance, closing_balance)
		 VALUES ($1, $2, $3) RETURNING id`,
		date.Format(domain.DateLayout), opening, closingArg,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed ledger day %s: %v", date.Format(domain.DateLayout), err)
	}
	return id
}

func SeedTransaction(t *testing.T, db *sql.DB, dayID int64, kind domain.TransactionKind, category, amount string, vatRate *domain.VATRate) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO transactions (day_id, kind, category, amount, vat_rate)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		dayID, kind, category, amount, vatRate,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed transaction %s on day %d: %v", category, dayID, err)
	}
	return id
}

func GetOpeningBalance(t *testing.T, db *sql.DB, dayID int64) decimal.Decimal {
	t.Helper()

	var opening decimal.Decimal
	err := db.QueryRow(`SELECT opening_balance FROM ledger_days WHERE id = $1`, dayID).Scan(&opening)
	if err != nil {
		t.Fatalf("get opening balance %d: %v", dayID, err)
	}
	return opening
}

func CountDays(t *testing.T, db *sql.DB, date time.Time) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_days WHERE date = $1`, date.Format(domain.DateLayout)).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger days %s: %v", date.Format(domain.DateLayout), err)
	}
	return count
}

func VAT(r domain.VATRate) *domain.VATRate {
	return &r
}

func Str(s string) *string {
	return &s
}
