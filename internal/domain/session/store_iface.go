package session

import (
	"context"
	"time"
)

type Store interface {
	Create(ctx context.Context, s StoredSession) error
	Get(ctx context.Context, id string) (StoredSession, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Authenticator exchanges credentials for a backend token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Credentials, error)
}

// Cipher protects the backend token at rest.
type Cipher interface {
	EncryptString(value string) ([]byte, error)
	DecryptString(value []byte) (string, error)
}
