package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/grunt24/bcas-hrms/internal/domain/session"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess session.StoredSession) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
    INSERT INTO sessions (id, user_json, token_enc, created_at, expires_at)
    VALUES ($1,$2,$3,$4,$5)
  `, sess.ID, string(userJSON), sess.TokenEnc, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix())
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (session.StoredSession, error) {
	var (
		out                  session.StoredSession
		userJSON             string
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `
    SELECT id, user_json, token_enc, created_at, expires_at
    FROM sessions
    WHERE id = $1
  `, id).Scan(&out.ID, &userJSON, &out.TokenEnc, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.StoredSession{}, session.ErrSessionNotFound
	}
	if err != nil {
		return session.StoredSession{}, err
	}
	if err := json.Unmarshal([]byte(userJSON), &out.User); err != nil {
		return session.StoredSession{}, err
	}
	out.CreatedAt = time.Unix(createdAt, 0).UTC()
	out.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return out, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
