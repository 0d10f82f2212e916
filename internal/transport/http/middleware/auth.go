package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/backend"
	"github.com/grunt24/bcas-hrms/internal/platform/requestctx"
)

type SessionResolver interface {
	Authenticate(ctx context.Context, accessToken string) (session.Session, error)
}

// Auth resolves the bearer access token into a session. Requests without a
// valid token continue anonymously; RequireSession and RequirePermission
// reject them.
func Auth(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || resolver == nil {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := resolver.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestctx.WithSession(r.Context(), sess)
			ctx = backend.WithToken(ctx, sess.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func GetSession(ctx context.Context) (session.Session, bool) {
	return requestctx.GetSession(ctx)
}
