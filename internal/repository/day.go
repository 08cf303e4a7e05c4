package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

const dayColumns = `id, date, opening_balance, closing_balance, created_at, updated_at`

type DayRepository struct {
	db *sql.DB
}

func NewDayRepository(db *sql.DB) *DayRepository {
	return &DayRepository{db: db}
}

func (r *DayRepository) Create(ctx context.Context, date time.Time, opening decimal.Decimal) (*domain.LedgerDay, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO ledger_days (date, opening_balance) VALUES ($1, $2)
		RETURNING `+dayColumns,
		date.Format(domain.DateLayout), opening,
	)
	d, err := scanDay(row)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, fmt.Errorf("Create: %w", domain.ErrDayExists)
		}
		return nil, fmt.Errorf("Create: %w", err)
	}
	return d, nil
}

func (r *DayRepository) GetByID(ctx context.Context, id int64) (*domain.LedgerDay, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dayColumns+` FROM ledger_days WHERE id = $1`, id,
	)
	d, err := scanDay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return d, nil
}

// List returns all days ordered by date, or only those of month when given.
func (r *DayRepository) List(ctx context.Context, month *domain.Month) ([]domain.LedgerDay, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if month == nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+dayColumns+` FROM ledger_days ORDER BY date`,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+dayColumns+` FROM ledger_days
			WHERE date >= $1 AND date < $2 ORDER BY date`,
			month.Start().Format(domain.DateLayout), month.End().Format(domain.DateLayout),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	days, err := collectDays(rows)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return days, nil
}

func (r *DayRepository) UpdateClosingBalance(ctx context.Context, id int64, amount decimal.Decimal) (*domain.LedgerDay, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE ledger_days SET closing_balance = $1, updated_at = now()
		WHERE id = $2 RETURNING `+dayColumns,
		amount, id,
	)
	d, err := scanDay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("UpdateClosingBalance: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("UpdateClosingBalance: %w", err)
	}
	return d, nil
}

func (r *DayRepository) UpdateOpeningBalance(ctx context.Context, tx *sql.Tx, id int64, amount decimal.Decimal) (*domain.LedgerDay, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE ledger_days SET opening_balance = $1, updated_at = now()
		WHERE id = $2 RETURNING `+dayColumns,
		amount, id,
	)
	d, err := scanDay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("UpdateOpeningBalance: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("UpdateOpeningBalance: %w", err)
	}
	return d, nil
}

// ListYearFromForUpdate locks and returns the days from date (inclusive) up
// to the end of date's year, ordered by date.
func (r *DayRepository) ListYearFromForUpdate(ctx context.Context, tx *sql.Tx, date time.Time) ([]domain.LedgerDay, error) {
	yearEnd := time.Date(date.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := tx.QueryContext(ctx,
		`SELECT `+dayColumns+` FROM ledger_days
		WHERE date >= $1 AND date < $2 ORDER BY date FOR UPDATE`,
		date.Format(domain.DateLayout), yearEnd.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("ListYearFromForUpdate: %w", err)
	}
	defer rows.Close()

	days, err := collectDays(rows)
	if err != nil {
		return nil, fmt.Errorf("ListYearFromForUpdate: %w", err)
	}
	return days, nil
}

func collectDays(rows *sql.Rows) ([]domain.LedgerDay, error) {
	days := []domain.LedgerDay{}
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		days = append(days, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return days, nil
}

func scanDay(s scanner) (*domain.LedgerDay, error) {
	var d domain.LedgerDay
	err := s.Scan(
		&d.ID, &d.Date, &d.OpeningBalance, &d.ClosingBalance,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Date = calendarDate(d.Date)
	return &d, nil
}
