package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grunt24/bcas-hrms/internal/domain/session"
)

// Login exchanges credentials for a backend token and user profile.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credentials, error) {
	var out session.Credentials
	err := c.send(ctx, c.http, "login", http.MethodPost, c.endpoint("Authentication", "login"),
		loginRequest{Username: username, Password: password}, &out)
	switch status := statusOf(err); {
	case err == nil:
		return out, nil
	case status == http.StatusUnauthorized || status == http.StatusBadRequest || status == http.StatusNotFound:
		return session.Credentials{}, session.ErrInvalidCredentials
	case errors.Is(err, context.Canceled):
		return session.Credentials{}, err
	default:
		return session.Credentials{}, fmt.Errorf("%w: %w", session.ErrBackendUnavailable, err)
	}
}
