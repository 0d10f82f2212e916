package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store  Store
	auth   Authenticator
	cipher Cipher
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(store Store, auth Authenticator, cipher Cipher, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{store: store, auth: auth, cipher: cipher, secret: secret, ttl: ttl, now: time.Now}
}

// Login authenticates against the HR backend and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, Session{}, ErrCredentialsMissing
	}
	creds, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return LoginResult{}, Session{}, err
	}
	if creds.Token == "" {
		return LoginResult{}, Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Token:     creds.Token,
		User:      creds.User,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	tokenEnc, err := s.cipher.EncryptString(sess.Token)
	if err != nil {
		return LoginResult{}, Session{}, fmt.Errorf("encrypt backend token: %w", err)
	}
	if err := s.store.Create(ctx, StoredSession{
		ID:        sess.ID,
		User:      sess.User,
		TokenEnc:  tokenEnc,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}); err != nil {
		return LoginResult{}, Session{}, fmt.Errorf("store session: %w", err)
	}

	access, err := GenerateToken(s.secret, Claims{
		SessionID:  sess.ID,
		UserID:     sess.User.UserID,
		EmployeeID: sess.User.EmployeeID,
		RoleName:   sess.User.RoleName(),
	}, sess.ExpiresAt)
	if err != nil {
		return LoginResult{}, Session{}, err
	}
	return LoginResult{
		AccessToken: access,
		ExpiresAt:   sess.ExpiresAt,
		User:        sess.User,
		Permissions: sess.User.Permissions(),
	}, sess, nil
}

// Authenticate resolves the session named by a signed access token.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Session, error) {
	claims, err := ParseToken(s.secret, accessToken)
	if err != nil {
		return Session{}, err
	}
	return s.Resolve(ctx, claims.SessionID)
}

func (s *Service) Resolve(ctx context.Context, id string) (Session, error) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !s.now().Before(stored.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	token, err := s.cipher.DecryptString(stored.TokenEnc)
	if err != nil {
		return Session{}, fmt.Errorf("decrypt backend token: %w", err)
	}
	return Session{
		ID:        stored.ID,
		Token:     token,
		User:      stored.User,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Logout discards the session. Unknown sessions are not an error.
func (s *Service) Logout(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *Service) Prune(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("expired sessions pruned", "count", removed)
	}
	return removed, nil
}
