package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/domain"
)

type dayRepository interface {
	Create(ctx context.Context, date time.Time, opening decimal.Decimal) (*domain.LedgerDay, error)
	GetByID(ctx context.Context, id int64) (*domain.LedgerDay, error)
	List(ctx context.Context, month *domain.Month) ([]domain.LedgerDay, error)
	UpdateClosingBalance(ctx context.Context, id int64, amount decimal.Decimal) (*domain.LedgerDay, error)
	UpdateOpeningBalance(ctx context.Context, tx *sql.Tx, id int64, amount decimal.Decimal) (*domain.LedgerDay, error)
}

type transactionRepository interface {
	Create(ctx context.Context, t *domain.Transaction) error
	ListByDay(ctx context.Context, dayID int64) ([]domain.Transaction, error)
}

type reportRepository interface {
	CategoryTotals(ctx context.Context, month domain.Month) ([]domain.CategoryTotal, error)
	DayTotals(ctx context.Context, from, to time.Time) (map[int64]domain.DayTotals, error)
}

type signalPublisher interface {
	PublishTx(ctx context.Context, tx *sql.Tx, sig domain.RecomputeSignal) error
}

type ruleResolver interface {
	Resolve(key string) (category.Rule, bool)
}
