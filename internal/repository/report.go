package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

// ReportRepository runs the aggregation queries behind the monthly journal
// and the cash rollups.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CategoryTotals sums the month's transactions per (category, vat_rate).
func (r *ReportRepository) CategoryTotals(ctx context.Context, month domain.Month) ([]domain.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.category, t.vat_rate, SUM(t.amount)
		FROM transactions t
		JOIN ledger_days d ON d.id = t.day_id
		WHERE d.date >= $1 AND d.date < $2
		GROUP BY t.category, t.vat_rate
		ORDER BY t.category, t.vat_rate NULLS FIRST`,
		month.Start().Format(domain.DateLayout), month.End().Format(domain.DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("CategoryTotals: %w", err)
	}
	defer rows.Close()

	totals := []domain.CategoryTotal{}
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.VATRate, &ct.Amount); err != nil {
			return nil, fmt.Errorf("CategoryTotals: scan: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CategoryTotals: rows: %w", err)
	}
	return totals, nil
}

// DayTotals sums receipts, expenses and other movements per day for days in
// [from, to). Days without transactions are present with zero totals.
func (r *ReportRepository) DayTotals(ctx context.Context, from, to time.Time) (map[int64]domain.DayTotals, error) {
	totals, err := dayTotals(ctx, r.db, from, to)
	if err != nil {
		return nil, fmt.Errorf("DayTotals: %w", err)
	}
	return totals, nil
}

func (r *ReportRepository) DayTotalsTx(ctx context.Context, tx *sql.Tx, from, to time.Time) (map[int64]domain.DayTotals, error) {
	totals, err := dayTotals(ctx, tx, from, to)
	if err != nil {
		return nil, fmt.Errorf("DayTotalsTx: %w", err)
	}
	return totals, nil
}

func dayTotals(ctx context.Context, q querier, from, to time.Time) (map[int64]domain.DayTotals, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT d.id,
			COALESCE(SUM(t.amount) FILTER (WHERE t.kind = 'receipt'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.kind = 'expense'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.kind = 'other'), 0)
		FROM ledger_days d
		LEFT JOIN transactions t ON t.day_id = d.id
		WHERE d.date >= $1 AND d.date < $2
		GROUP BY d.id`,
		from.Format(domain.DateLayout), to.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]domain.DayTotals)
	for rows.Next() {
		var (
			id int64
			dt domain.DayTotals
		)
		if err := rows.Scan(&id, &dt.Receipts, &dt.Expenses, &dt.Other); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		totals[id] = dt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return totals, nil
}
