package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/grunt24/bcas-hrms/internal/platform/archive"
	"github.com/grunt24/bcas-hrms/internal/transport/http/api"
)

const idempotencyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	Check(ctx context.Context, owner, scope, key, requestHash string) (archive.StoredResponse, bool, error)
	Save(ctx context.Context, owner, scope, key, requestHash string, response archive.StoredResponse) error
}

type responseCapture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotent replays the stored response when a request repeats an
// Idempotency-Key with the same body, and refuses a reused key with a
// different body. Keys are scoped per session user. Requests without the
// header pass through.
func Idempotent(scope string, store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			sess, ok := GetSession(r.Context())
			if key == "" || store == nil || !ok {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > 255 {
				api.Fail(w, http.StatusBadRequest, "validation_error", "Idempotency-Key is too long", requestID)
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_body", "unable to read request body", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))
			owner := strconv.Itoa(sess.User.UserID)
			hash := archive.RequestHash(payload)

			stored, found, err := store.Check(r.Context(), owner, scope, key, hash)
			switch {
			case errors.Is(err, archive.ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "Idempotency-Key was already used with a different request", requestID)
				return
			case err != nil:
				slog.Warn("idempotency check failed", "scope", scope, "err", err)
			case found:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status/100 != 2 {
				return
			}
			if err := store.Save(r.Context(), owner, scope, key, hash, archive.StoredResponse{
				Status: capture.status,
				Body:   bytes.TrimSpace(capture.body.Bytes()),
			}); err != nil {
				slog.Warn("idempotency save failed", "scope", scope, "err", err)
			}
		})
	}
}
