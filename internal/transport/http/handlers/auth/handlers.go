package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grunt24/bcas-hrms/internal/domain/audit"
	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/transport/http/api"
	"github.com/grunt24/bcas-hrms/internal/transport/http/middleware"
	"github.com/grunt24/bcas-hrms/internal/transport/http/shared"
)

type SessionService interface {
	Login(ctx context.Context, username, password string) (session.LoginResult, session.Session, error)
	Logout(ctx context.Context, id string) error
}

type Handler struct {
	Sessions SessionService
	Audit    *audit.Service
}

func NewHandler(sessions SessionService, auditSvc *audit.Service) *Handler {
	return &Handler{Sessions: sessions, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.With(middleware.RequireSession).Post("/logout", h.HandleLogout)
		r.With(middleware.RequireSession).Get("/me", h.HandleMe)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=256"`
}

type meResponse struct {
	User        session.User `json:"user"`
	DisplayName string       `json:"displayName"`
	Role        string       `json:"role"`
	Permissions []string     `json:"permissions"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, requestID) {
		return
	}

	result, sess, err := h.Sessions.Login(r.Context(), payload.Username, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrCredentialsMissing):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "username", Reason: "is required"}})
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	case errors.Is(err, session.ErrBackendUnavailable):
		slog.Warn("login backend unavailable", "err", err)
		api.Fail(w, http.StatusBadGateway, "backend_unavailable", "authentication service unavailable", requestID)
		return
	default:
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestID)
		return
	}

	slog.Info("user logged in", "userId", sess.User.UserID, "sessionId", sess.ID)
	h.audit(r, sess, audit.ActionSessionLogin)
	api.Success(w, result, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := h.Sessions.Logout(r.Context(), sess.ID); err != nil {
		slog.Warn("logout session delete failed", "sessionId", sess.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to end session", requestID)
		return
	}
	h.audit(r, sess, audit.ActionSessionLogout)
	api.Success(w, map[string]string{"status": "logged_out"}, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	api.Success(w, meResponse{
		User:        sess.User,
		DisplayName: sess.User.DisplayName(),
		Role:        sess.User.RoleName(),
		Permissions: sess.User.Permissions(),
		ExpiresAt:   sess.ExpiresAt,
	}, requestID)
}

func (h *Handler) audit(r *http.Request, sess session.Session, action string) {
	err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    strconv.Itoa(sess.User.UserID),
		Action:     action,
		EntityType: "session",
		EntityID:   sess.ID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
