package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	listened  string
	listenErr error
	pings     int
}

func (f *fakeSource) Listen(channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listened = channel
	return f.listenErr
}

func (f *fakeSource) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

type fakeRecomputer struct {
	mu    sync.Mutex
	dates []time.Time
	done  chan struct{}
}

func (f *fakeRecomputer) RecomputeFrom(_ context.Context, date time.Time) (int, error) {
	f.mu.Lock()
	f.dates = append(f.dates, date)
	f.mu.Unlock()
	f.done <- struct{}{}
	return 1, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConsumer_HandlesSignals(t *testing.T) {
	notify := make(chan *pq.Notification, 4)
	src := &fakeSource{}
	rec := &fakeRecomputer{done: make(chan struct{}, 4)}
	c := NewConsumer(src, notify, "kasboek_start_balance_changed", rec, discardLogger(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	notify <- &pq.Notification{Extra: "not json"}
	notify <- nil
	notify <- &pq.Notification{Extra: `{"date":"2025-13-01"}`}
	notify <- &pq.Notification{Extra: `{"date":"2025-01-01"}`}

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("recompute was not called")
	}

	cancel()
	require.NoError(t, <-errCh)

	src.mu.Lock()
	assert.Equal(t, "kasboek_start_balance_changed", src.listened)
	src.mu.Unlock()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.dates, 1)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), rec.dates[0])
}

func TestConsumer_ListenError(t *testing.T) {
	src := &fakeSource{listenErr: errors.New("connection refused")}
	c := NewConsumer(src, make(chan *pq.Notification), "ch", &fakeRecomputer{}, discardLogger(), time.Hour)

	err := c.Start(context.Background())
	require.Error(t, err)
}

func TestConsumer_ClosedChannel(t *testing.T) {
	notify := make(chan *pq.Notification)
	close(notify)
	c := NewConsumer(&fakeSource{}, notify, "ch", &fakeRecomputer{}, discardLogger(), time.Hour)

	err := c.Start(context.Background())
	require.ErrorIs(t, err, ErrNotificationsClosed)
}

func TestConsumer_Pings(t *testing.T) {
	src := &fakeSource{}
	c := NewConsumer(src, make(chan *pq.Notification), "ch", &fakeRecomputer{}, discardLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Start(ctx))

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Positive(t, src.pings)
}
