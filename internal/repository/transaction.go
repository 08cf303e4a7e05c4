package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

const transactionColumns = `id, day_id, kind, category, amount, vat_rate, description, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts t and fills in its ID and CreatedAt.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (day_id, kind, category, amount, vat_rate, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		t.DayID, t.Kind, t.Category, t.Amount, t.VATRate, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("Create: day %d: %w", t.DayID, domain.ErrNotFound)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) ListByDay(ctx context.Context, dayID int64) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE day_id = $1 ORDER BY id`, dayID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDay: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByDay: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDay: rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.DayID, &t.Kind, &t.Category, &t.Amount,
		&t.VATRate, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
