package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// Client talks to the HR REST backend. Calls made with a session token in the
// context act as that user; calls without one fall back to the service
// account when client credentials are configured.
type Client struct {
	base    *url.URL
	timeout time.Duration
	http    *http.Client
	service *http.Client
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		base:    base,
		timeout: timeout,
		http:    &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
	}
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		c.service = cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, c.http))
	}
	return c, nil
}

type tokenKey struct{}

// WithToken attaches a backend bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func (c *Client) clientFor(ctx context.Context) *http.Client {
	if token := tokenFrom(ctx); token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		return oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.http), src)
	}
	if c.service != nil {
		return c.service
	}
	return c.http
}

func (c *Client) endpoint(parts ...string) string {
	return c.base.JoinPath(parts...).String()
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	return c.send(ctx, c.clientFor(ctx), op, method, target, body, out)
}

// send issues a JSON request and decodes a JSON response into out when out is
// non-nil. Non-2xx responses return a *StatusError.
func (c *Client) send(ctx context.Context, client *http.Client, op, method, target string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &StatusError{Op: op, Status: res.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	if out == nil {
		return nil
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
