package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/requestctx"
)

type fakeResolver struct {
	sessions map[string]session.Session
}

func (f fakeResolver) Authenticate(_ context.Context, token string) (session.Session, error) {
	sess, ok := f.sessions[token]
	if !ok {
		return session.Session{}, session.ErrInvalidToken
	}
	return sess, nil
}

func adminSession() session.Session {
	return session.Session{
		ID:    "s1",
		Token: "backend-token",
		User:  session.User{UserID: 9, EmployeeID: 14, RoleID: session.RoleAdministrator, Username: "admin"},
	}
}

func teacherSession() session.Session {
	return session.Session{
		ID:   "s2",
		User: session.User{UserID: 12, EmployeeID: 20, RoleID: session.RoleTeacher, Username: "teacher"},
	}
}

func withSession(r *http.Request, sess session.Session) *http.Request {
	return r.WithContext(requestctx.WithSession(r.Context(), sess))
}

func withBearer(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestAuthMiddlewareSetsSession(t *testing.T) {
	resolver := fakeResolver{sessions: map[string]session.Session{"tok": adminSession()}}
	called := false
	handler := Auth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		sess, ok := GetSession(r.Context())
		if !ok {
			t.Fatal("expected session in context")
		}
		if sess.User.UserID != 9 || sess.ID != "s1" {
			t.Fatalf("unexpected session: %+v", sess)
		}
	}))

	req := withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareIgnoresMissingOrInvalidToken(t *testing.T) {
	resolver := fakeResolver{sessions: map[string]session.Session{}}
	calls := 0
	handler := Auth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if _, ok := GetSession(r.Context()); ok {
			t.Fatal("did not expect session in context")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), withBearer(httptest.NewRequest(http.MethodGet, "/", nil), "bogus"))
	basic := httptest.NewRequest(http.MethodGet, "/", nil)
	basic.Header.Set("Authorization", "Basic abc")
	handler.ServeHTTP(httptest.NewRecorder(), basic)

	if calls != 3 {
		t.Fatalf("expected anonymous requests to continue, got %d calls", calls)
	}
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := RequirePermission(session.PermEvaluationSubmit)(ok)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", httptest.NewRequest(http.MethodPost, "/", nil), http.StatusUnauthorized},
		{"teacher", withSession(httptest.NewRequest(http.MethodPost, "/", nil), teacherSession()), http.StatusForbidden},
		{"administrator", withSession(httptest.NewRequest(http.MethodPost, "/", nil), adminSession()), http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, tc.req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil), teacherSession()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
