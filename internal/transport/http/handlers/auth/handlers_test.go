package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/requestctx"
)

type fakeSessions struct {
	loginErr   error
	logoutErr  error
	loggedOut  []string
	lastUser   string
	loginCalls int
}

func (f *fakeSessions) Login(_ context.Context, username, password string) (session.LoginResult, session.Session, error) {
	f.loginCalls++
	f.lastUser = username
	if f.loginErr != nil {
		return session.LoginResult{}, session.Session{}, f.loginErr
	}
	user := session.User{UserID: 9, EmployeeID: 14, RoleID: session.RoleAdministrator, Username: username}
	result := session.LoginResult{
		AccessToken: "signed",
		ExpiresAt:   time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		User:        user,
		Permissions: user.Permissions(),
	}
	return result, session.Session{ID: "s1", User: user}, nil
}

func (f *fakeSessions) Logout(_ context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	return f.logoutErr
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHandleLoginSuccess(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewHandler(sessions, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"username":"admin","password":"secret"}`))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result session.LoginResult
	if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
		t.Fatalf("decode login result: %v", err)
	}
	if result.AccessToken != "signed" || result.User.UserID != 9 || len(result.Permissions) != len(session.DefaultPermissions) {
		t.Fatalf("unexpected login result %+v", result)
	}
}

func TestHandleLoginErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		loginErr error
		want     int
		code     string
		calls    int
	}{
		{"malformed json", `{`, nil, http.StatusBadRequest, "invalid_payload", 0},
		{"missing password", `{"username":"admin"}`, nil, http.StatusBadRequest, "validation_error", 0},
		{"blank username", `{"username":"  ","password":"x"}`, session.ErrCredentialsMissing, http.StatusBadRequest, "validation_error", 1},
		{"bad credentials", `{"username":"admin","password":"x"}`, session.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", 1},
		{"backend down", `{"username":"admin","password":"x"}`, session.ErrBackendUnavailable, http.StatusBadGateway, "backend_unavailable", 1},
		{"store failure", `{"username":"admin","password":"x"}`, errors.New("disk full"), http.StatusInternalServerError, "session_error", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sessions := &fakeSessions{loginErr: tc.loginErr}
			rec := httptest.NewRecorder()
			NewHandler(sessions, nil).HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			if body := decode(t, rec); body.Error == nil || body.Error.Code != tc.code {
				t.Fatalf("expected error code %s, got %s", tc.code, rec.Body.String())
			}
			if sessions.loginCalls != tc.calls {
				t.Fatalf("expected %d login calls, got %d", tc.calls, sessions.loginCalls)
			}
		})
	}
}

func TestHandleLogoutAndMe(t *testing.T) {
	sessions := &fakeSessions{}
	h := NewHandler(sessions, nil)
	sess := session.Session{
		ID:        "s7",
		User:      session.User{UserID: 3, RoleID: session.RoleTeacher, FirstName: "Ana", LastName: "Reyes"},
		ExpiresAt: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}

	anon := httptest.NewRecorder()
	h.HandleMe(anon, httptest.NewRequest(http.MethodGet, "/", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", anon.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(requestctx.WithSession(req.Context(), sess))
	me := httptest.NewRecorder()
	h.HandleMe(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", me.Code)
	}
	var out meResponse
	if err := json.Unmarshal(decode(t, me).Data, &out); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if out.DisplayName != "Ana Reyes" || len(out.Permissions) != 1 || out.Permissions[0] != session.PermEvaluationRead {
		t.Fatalf("unexpected me response %+v", out)
	}

	logout := httptest.NewRecorder()
	h.HandleLogout(logout, req)
	if logout.Code != http.StatusOK || len(sessions.loggedOut) != 1 || sessions.loggedOut[0] != "s7" {
		t.Fatalf("expected session s7 logged out, got %d %v", logout.Code, sessions.loggedOut)
	}
}
