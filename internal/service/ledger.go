package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/logging"
)

// Columns are NUMERIC(12, 2): ten integer digits and two decimals.
const maxIntegerDigits = 10

type LedgerService struct {
	days      dayRepository
	txns      transactionRepository
	publisher signalPublisher
	rules     ruleResolver
	db        *sql.DB
}

func NewLedgerService(
	days dayRepository,
	txns transactionRepository,
	publisher signalPublisher,
	rules ruleResolver,
	db *sql.DB,
) *LedgerService {
	return &LedgerService{
		days:      days,
		txns:      txns,
		publisher: publisher,
		rules:     rules,
		db:        db,
	}
}

func (s *LedgerService) CreateDay(ctx context.Context, date time.Time, opening decimal.Decimal) (*domain.LedgerDay, error) {
	if err := validateBalance(opening); err != nil {
		return nil, fmt.Errorf("CreateDay: %w", err)
	}

	day, err := s.days.Create(ctx, date, opening)
	if err != nil {
		return nil, fmt.Errorf("CreateDay: %w", err)
	}

	logging.FromContext(ctx).Info("ledger day created",
		"day_id", day.ID,
		"date", day.Date.Format(domain.DateLayout),
		"opening_balance", day.OpeningBalance,
	)
	return day, nil
}

func (s *LedgerService) ListDays(ctx context.Context, month *domain.Month) ([]domain.LedgerDay, error) {
	days, err := s.days.List(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("ListDays: %w", err)
	}
	return days, nil
}

func (s *LedgerService) GetDay(ctx context.Context, id int64) (*domain.LedgerDay, error) {
	day, err := s.days.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetDay: %w", err)
	}
	return day, nil
}

func (s *LedgerService) SetClosingBalance(ctx context.Context, id int64, amount decimal.Decimal) (*domain.LedgerDay, error) {
	if err := validateBalance(amount); err != nil {
		return nil, fmt.Errorf("SetClosingBalance: %w", err)
	}

	day, err := s.days.UpdateClosingBalance(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("SetClosingBalance: %w", err)
	}

	logging.FromContext(ctx).Info("closing balance set",
		"day_id", day.ID,
		"date", day.Date.Format(domain.DateLayout),
		"closing_balance", amount,
	)
	return day, nil
}

// SetOpeningBalance changes the opening balance of a January 1st day and
// announces the change so later days of the year get recomputed. When date
// is non-nil it must match the stored day.
func (s *LedgerService) SetOpeningBalance(ctx context.Context, id int64, amount decimal.Decimal, date *time.Time) (*domain.LedgerDay, error) {
	if err := validateBalance(amount); err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: %w", err)
	}

	current, err := s.days.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: %w", err)
	}

	if date != nil && !domain.SameDate(*date, current.Date) {
		return nil, fmt.Errorf("SetOpeningBalance: %w", domain.ErrDateMismatch)
	}

	if !domain.OpeningBalanceEditable(current.Date) {
		return nil, fmt.Errorf("SetOpeningBalance: %s: %w", current.Date.Format(domain.DateLayout), domain.ErrOpeningBalanceLocked)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: begin tx: %w", err)
	}
	defer tx.Rollback()

	day, err := s.days.UpdateOpeningBalance(ctx, tx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: %w", err)
	}

	if err := s.publisher.PublishTx(ctx, tx, domain.RecomputeSignal{Date: day.Date}); err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SetOpeningBalance: commit: %w", err)
	}

	logging.FromContext(ctx).Info("opening balance changed",
		"day_id", day.ID,
		"date", day.Date.Format(domain.DateLayout),
		"previous", current.OpeningBalance,
		"opening_balance", day.OpeningBalance,
	)
	return day, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, dayID int64) ([]domain.Transaction, error) {
	if _, err := s.days.GetByID(ctx, dayID); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	txns, err := s.txns.ListByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, nil
}

type AddTransactionRequest struct {
	DayID       int64
	Kind        domain.TransactionKind
	Category    string
	Amount      decimal.Decimal
	VATRate     *domain.VATRate
	Description *string
}

func (s *LedgerService) AddTransaction(ctx context.Context, req AddTransactionRequest) (*domain.Transaction, error) {
	if err := s.validateTransaction(req); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	t := &domain.Transaction{
		DayID:       req.DayID,
		Kind:        req.Kind,
		Category:    req.Category,
		Amount:      req.Amount,
		VATRate:     req.VATRate,
		Description: req.Description,
	}
	if err := s.txns.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("AddTransaction: %w", err)
	}

	logging.FromContext(ctx).Info("transaction recorded",
		"transaction_id", t.ID,
		"day_id", t.DayID,
		"kind", t.Kind,
		"category", t.Category,
		"amount", t.Amount,
	)
	return t, nil
}

func (s *LedgerService) validateTransaction(req AddTransactionRequest) error {
	if !req.Kind.IsValid() {
		return fmt.Errorf("validateTransaction: %q: %w", req.Kind, domain.ErrInvalidKind)
	}
	if !req.Amount.IsPositive() || !fitsColumn(req.Amount) {
		return fmt.Errorf("validateTransaction: %w", domain.ErrInvalidAmount)
	}
	if req.VATRate != nil && !req.VATRate.IsValid() {
		return fmt.Errorf("validateTransaction: %q: %w", *req.VATRate, domain.ErrInvalidVATRate)
	}
	if _, ok := s.rules.Resolve(req.Category); !ok {
		return fmt.Errorf("validateTransaction: %q: %w", req.Category, domain.ErrUnknownCategory)
	}
	return nil
}

func validateBalance(amount decimal.Decimal) error {
	if !fitsColumn(amount) {
		return fmt.Errorf("validateBalance: outside NUMERIC(12, 2): %w", domain.ErrInvalidBalance)
	}
	return nil
}

// fitsColumn reports whether d is representable as NUMERIC(12, 2). The
// coefficient and exponent are checked before anything rescales d, so an
// input like 1e20000000 is rejected without being expanded.
func fitsColumn(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if d.IsZero() {
		// Zero is still rescaled when it is written, so its exponent counts.
		return exp >= -(maxIntegerDigits+2) && exp <= maxIntegerDigits
	}
	digits := int64(d.NumDigits())
	if digits+exp > maxIntegerDigits {
		return false
	}
	if exp >= -2 {
		return true
	}
	// Past the second decimal only trailing zeros are allowed, which needs
	// at least that many coefficient digits.
	if digits < -exp-1 {
		return false
	}
	return d.Equal(d.Truncate(2))
}
