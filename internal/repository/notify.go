package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

type recomputePayload struct {
	Date string `json:"date"`
}

// Notifier publishes recompute signals with pg_notify. Publishing inside a
// transaction delays delivery until commit and drops it on rollback.
type Notifier struct {
	channel string
}

func NewNotifier(channel string) *Notifier {
	return &Notifier{channel: channel}
}

func (n *Notifier) Channel() string {
	return n.channel
}

func (n *Notifier) PublishTx(ctx context.Context, tx *sql.Tx, sig domain.RecomputeSignal) error {
	payload, err := EncodeRecomputeSignal(sig)
	if err != nil {
		return fmt.Errorf("PublishTx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.channel, payload); err != nil {
		return fmt.Errorf("PublishTx: %w", err)
	}
	return nil
}

func EncodeRecomputeSignal(sig domain.RecomputeSignal) (string, error) {
	b, err := json.Marshal(recomputePayload{Date: sig.Date.Format(domain.DateLayout)})
	if err != nil {
		return "", fmt.Errorf("EncodeRecomputeSignal: %w", err)
	}
	return string(b), nil
}

func DecodeRecomputeSignal(payload string) (domain.RecomputeSignal, error) {
	var p recomputePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return domain.RecomputeSignal{}, fmt.Errorf("DecodeRecomputeSignal: %w", err)
	}
	date, err := domain.ParseDate(p.Date)
	if err != nil {
		return domain.RecomputeSignal{}, fmt.Errorf("DecodeRecomputeSignal: %w", err)
	}
	return domain.RecomputeSignal{Date: date}, nil
}
