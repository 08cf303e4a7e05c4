package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

type recomputeDayRepo interface {
	ListYearFromForUpdate(ctx context.Context, tx *sql.Tx, date time.Time) ([]domain.LedgerDay, error)
	UpdateOpeningBalance(ctx context.Context, tx *sql.Tx, id int64, amount decimal.Decimal) (*domain.LedgerDay, error)
}

type recomputeReportRepo interface {
	DayTotalsTx(ctx context.Context, tx *sql.Tx, from, to time.Time) (map[int64]domain.DayTotals, error)
}

// RecomputeService carries an opening balance forward through the rest of
// its year.
type RecomputeService struct {
	days    recomputeDayRepo
	reports recomputeReportRepo
	db      *sql.DB
	logger  *slog.Logger
}

func NewRecomputeService(days recomputeDayRepo, reports recomputeReportRepo, db *sql.DB, logger *slog.Logger) *RecomputeService {
	return &RecomputeService{days: days, reports: reports, db: db, logger: logger}
}

// RecomputeFrom rewrites the opening balance of every day after date in the
// same year and returns how many days changed. The first day on or after
// date is the anchor and keeps its own opening balance.
func (s *RecomputeService) RecomputeFrom(ctx context.Context, date time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("RecomputeFrom: begin tx: %w", err)
	}
	defer tx.Rollback()

	days, err := s.days.ListYearFromForUpdate(ctx, tx, date)
	if err != nil {
		return 0, fmt.Errorf("RecomputeFrom: %w", err)
	}
	if len(days) < 2 {
		return 0, nil
	}

	yearEnd := time.Date(date.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	totals, err := s.reports.DayTotalsTx(ctx, tx, days[0].Date, yearEnd)
	if err != nil {
		return 0, fmt.Errorf("RecomputeFrom: %w", err)
	}

	changes := carryForward(days, totals)
	for _, c := range changes {
		if _, err := s.days.UpdateOpeningBalance(ctx, tx, c.dayID, c.opening); err != nil {
			return 0, fmt.Errorf("RecomputeFrom: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("RecomputeFrom: commit: %w", err)
	}

	s.logger.Info("opening balances recomputed",
		"from", date.Format(domain.DateLayout),
		"days", len(days),
		"changed", len(changes),
	)
	return len(changes), nil
}

type openingChange struct {
	dayID   int64
	opening decimal.Decimal
}

// carryForward walks days in date order. Each day opens with the previous
// day's closing balance when one was counted, otherwise with its expected
// closing.
func carryForward(days []domain.LedgerDay, totals map[int64]domain.DayTotals) []openingChange {
	var changes []openingChange
	if len(days) == 0 {
		return changes
	}

	prev := days[0]
	prevOpening := prev.OpeningBalance
	for _, d := range days[1:] {
		next := totals[prev.ID].ExpectedClosing(prevOpening)
		if prev.ClosingBalance.Valid {
			next = prev.ClosingBalance.Decimal
		}

		if !next.Equal(d.OpeningBalance) {
			changes = append(changes, openingChange{dayID: d.ID, opening: next})
		}

		prev = d
		prevOpening = next
	}
	return changes
}
