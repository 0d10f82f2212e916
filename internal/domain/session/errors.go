package session

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCredentialsMissing = errors.New("username and password are required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrBackendUnavailable = errors.New("authentication backend unavailable")
)
