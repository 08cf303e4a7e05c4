package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/kasboek/internal/auth"
	"github.com/josh-kwaku/kasboek/internal/handler"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/repository"
)

const (
	maxIdempotencyKeyLen = 255

	// How long a reservation blocks the key if the process dies mid-request.
	reservationLease = time.Minute
)

type idempotencyStore interface {
	Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Get(ctx context.Context, key, subject string) (*repository.IdempotencyCacheEntry, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key, subject string) error
}

// Idempotency makes a write safe to retry under the same Idempotency-Key.
// The key is reserved before the handler runs, so a concurrent duplicate gets
// 409 IDEMPOTENCY_IN_PROGRESS instead of recording the movement twice. A
// finished request is replayed for ttl; a 5xx or a panic frees the key again.
// Requests without the header pass straight through. Keys are per subject.
func Idempotency(store idempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				handler.RespondAppError(w, handler.ErrInvalidIdempotencyKey, nil)
				return
			}

			subject, ok := auth.SubjectFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			log := logging.FromContext(r.Context()).With("idempotency_key", key)
			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:         key,
				Subject:     subject,
				RequestHash: requestHash(r, body),
				CreatedAt:   now,
				ExpiresAt:   now.Add(reservationLease),
			}

			reserved, err := store.Reserve(r.Context(), entry)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !reserved {
				replay(w, r, store, entry)
				return
			}

			// The client may hang up; the outcome must still be recorded.
			storeCtx := context.WithoutCancel(r.Context())
			settled := false
			defer func() {
				if settled {
					return
				}
				if err := store.Release(storeCtx, key, subject); err != nil {
					log.Error("idempotency release failed", "error", err)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}
			settled = true

			entry.StatusCode = rec.statusCode
			entry.ResponseBody = rec.body.Bytes()
			entry.ExpiresAt = time.Now().UTC().Add(ttl)
			if err := store.Complete(storeCtx, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store idempotencyStore, want *repository.IdempotencyCacheEntry) {
	cached, err := store.Get(r.Context(), want.Key, want.Subject)
	if err != nil {
		logging.FromContext(r.Context()).Error("idempotency cache lookup failed", "error", err, "idempotency_key", want.Key)
		handler.RespondAppError(w, handler.ErrInternalError, nil)
		return
	}

	switch {
	case cached == nil, cached.Pending && cached.RequestHash == want.RequestHash:
		// A nil entry means the holder released it between our two calls.
		w.Header().Set("Retry-After", "1")
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
	case cached.RequestHash != want.RequestHash:
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Idempotent-Replayed", "true")
		w.WriteHeader(cached.StatusCode)
		if _, err := w.Write(cached.ResponseBody); err != nil {
			logging.FromContext(r.Context()).Error("failed to write idempotent replay", "error", err, "idempotency_key", want.Key)
		}
	}
}

// requestHash binds a key to the exact write it was first used for.
func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	io.WriteString(h, r.Method)
	io.WriteString(h, " ")
	io.WriteString(h, r.URL.Path)
	io.WriteString(h, "\n")
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
