// Package listener consumes opening-balance change signals from Postgres
// LISTEN/NOTIFY and recomputes the dependent days.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/repository"
)

var ErrNotificationsClosed = errors.New("notification channel closed")

type source interface {
	Listen(channel string) error
	Ping() error
}

type recomputer interface {
	RecomputeFrom(ctx context.Context, date time.Time) (int, error)
}

type Consumer struct {
	source       source
	notify       <-chan *pq.Notification
	channel      string
	recompute    recomputer
	logger       *slog.Logger
	pingInterval time.Duration
}

func NewConsumer(
	src source,
	notify <-chan *pq.Notification,
	channel string,
	recompute recomputer,
	logger *slog.Logger,
	pingInterval time.Duration,
) *Consumer {
	return &Consumer{
		source:       src,
		notify:       notify,
		channel:      channel,
		recompute:    recompute,
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// Dial opens a reconnecting pq listener. Connection state changes are logged.
func Dial(dsn string, minReconnect, maxReconnect time.Duration, logger *slog.Logger) *pq.Listener {
	return pq.NewListener(dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logger.Info("listener connected")
		case pq.ListenerEventDisconnected:
			logger.Warn("listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("listener connection attempt failed", "error", err)
		}
	})
}

// Start subscribes to the channel and blocks until ctx is cancelled or the
// notification channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.source.Listen(c.channel); err != nil {
		return fmt.Errorf("Start: listen %s: %w", c.channel, err)
	}
	c.logger.Info("recompute consumer started", "channel", c.channel, "ping_interval", c.pingInterval)

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("recompute consumer stopped")
			return nil
		case n, ok := <-c.notify:
			if !ok {
				return fmt.Errorf("Start: %w", ErrNotificationsClosed)
			}
			// nil follows a reconnect; signals sent while down are lost.
			if n == nil {
				c.logger.Warn("listener reconnected, notifications may have been missed")
				continue
			}
			c.handle(ctx, n.Extra)
		case <-ticker.C:
			if err := c.source.Ping(); err != nil {
				c.logger.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, payload string) {
	sig, err := repository.DecodeRecomputeSignal(payload)
	if err != nil {
		c.logger.Warn("skipping malformed recompute signal", "payload", payload, "error", err)
		return
	}

	changed, err := c.recompute.RecomputeFrom(ctx, sig.Date)
	if err != nil {
		c.logger.Error("recompute failed", "from", sig.Date.Format(domain.DateLayout), "error", err)
		return
	}

	c.logger.Info("recompute signal handled", "from", sig.Date.Format(domain.DateLayout), "changed", changed)
}
