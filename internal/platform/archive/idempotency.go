package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

// StoredResponse is a replayable response for a previously seen key.
type StoredResponse struct {
	Status int
	Body   json.RawMessage
}

type IdempotencyStore struct {
	db *sql.DB
}

func NewIdempotencyStore(db *sql.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(ctx context.Context, owner, scope, key, requestHash string) (StoredResponse, bool, error) {
	if s == nil || s.db == nil {
		return StoredResponse{}, false, nil
	}
	var (
		storedHash string
		body       string
		out        StoredResponse
	)
	err := s.db.QueryRowContext(ctx, `
    SELECT request_hash, status, response_json
    FROM idempotency_keys
    WHERE owner = $1 AND scope = $2 AND key = $3
  `, owner, scope, key).Scan(&storedHash, &out.Status, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	if storedHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	out.Body = json.RawMessage(body)
	return out, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, owner, scope, key, requestHash string, response StoredResponse) error {
	if s == nil || s.db == nil {
		return nil
	}
	res, err := s.db.ExecContext(ctx, `
    INSERT INTO idempotency_keys (owner, scope, key, request_hash, status, response_json, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    ON CONFLICT (owner, scope, key)
    DO UPDATE SET status = excluded.status, response_json = excluded.response_json
    WHERE idempotency_keys.request_hash = excluded.request_hash
  `, owner, scope, key, requestHash, response.Status, string(response.Body), time.Now().Unix())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Prune drops keys older than cutoff.
func (s *IdempotencyStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
