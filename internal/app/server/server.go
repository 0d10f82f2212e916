package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/grunt24/bcas-hrms/internal/domain/audit"
	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/archive"
	"github.com/grunt24/bcas-hrms/internal/platform/backend"
	"github.com/grunt24/bcas-hrms/internal/platform/config"
	"github.com/grunt24/bcas-hrms/internal/platform/crypto"
	"github.com/grunt24/bcas-hrms/internal/platform/db"
	"github.com/grunt24/bcas-hrms/internal/platform/jobs"
	"github.com/grunt24/bcas-hrms/internal/platform/metrics"
	"github.com/grunt24/bcas-hrms/internal/transport/http/api"
	audithandler "github.com/grunt24/bcas-hrms/internal/transport/http/handlers/audit"
	authhandler "github.com/grunt24/bcas-hrms/internal/transport/http/handlers/auth"
	evaluationhandler "github.com/grunt24/bcas-hrms/internal/transport/http/handlers/evaluation"
	"github.com/grunt24/bcas-hrms/internal/transport/http/middleware"
)

const (
	idempotencyRetention = 24 * time.Hour
	idempotencyPruneCron = "@daily"
	shutdownTimeout      = 15 * time.Second
)

type App struct {
	Config      config.Config
	DB          *sql.DB
	Backend     *backend.Client
	Sessions    *session.Service
	Evaluations *evaluation.Service
	Idempotency *archive.IdempotencyStore
	Audit       *audit.Service
	Jobs        *jobs.Service
	Metrics     *metrics.Collector
	Router      http.Handler
}

// New wires the service from configuration. The caller owns Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecret == "" {
		secret, err := ephemeralSecret()
		if err != nil {
			return nil, err
		}
		slog.Warn("JWT_SECRET not set; sessions will not survive a restart")
		cfg.JWTSecret = secret
	}

	conn, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	cipher, err := crypto.NewWithFallback(cfg.DataEncryptionKey, cfg.JWTSecret)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("encryption setup: %w", err)
	}
	client, err := backend.New(backend.Config{
		BaseURL:      cfg.BackendBaseURL,
		Timeout:      cfg.BackendTimeout,
		TokenURL:     cfg.BackendTokenURL,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("backend client: %w", err)
	}

	var repo evaluation.Repository = client
	if cfg.EvaluationStore == config.StoreLocal {
		repo = archive.NewEvaluationRepository(conn)
	}
	strategy, _ := evaluation.ParseStrategy(cfg.ScoreStrategy)

	app := &App{
		Config:      cfg,
		DB:          conn,
		Backend:     client,
		Sessions:    session.NewService(archive.NewSessionStore(conn), client, cipher, cfg.JWTSecret, cfg.SessionTTL),
		Evaluations: evaluation.NewService(client, client, repo, strategy),
		Idempotency: archive.NewIdempotencyStore(conn),
		Audit:       audit.New(conn),
		Jobs:        jobs.New(conn),
		Metrics:     metrics.New(),
	}
	if err := app.scheduleJobs(); err != nil {
		conn.Close()
		return nil, err
	}
	app.Router = app.routes()

	slog.Info("service configured",
		"env", cfg.Environment,
		"dbDriver", cfg.DBDriver,
		"evaluationStore", cfg.EvaluationStore,
		"strategy", strategy,
		"clientCredentials", cfg.ClientCredentialsConfigured(),
		"encryption", cipher.Configured(),
	)
	return app, nil
}

func (a *App) scheduleJobs() error {
	if err := a.Jobs.Schedule(a.Config.StructureRefreshCron, jobs.JobStructureRefresh, a.refreshStructure); err != nil {
		return err
	}
	if err := a.Jobs.Schedule(a.Config.SessionPruneCron, jobs.JobSessionPrune, func(ctx context.Context) (any, error) {
		removed, err := a.Sessions.Prune(ctx)
		return map[string]any{"removed": removed}, err
	}); err != nil {
		return err
	}
	return a.Jobs.Schedule(idempotencyPruneCron, jobs.JobIdempotencyPrune, func(ctx context.Context) (any, error) {
		removed, err := a.Idempotency.Prune(ctx, time.Now().Add(-idempotencyRetention))
		return map[string]any{"removed": removed}, err
	})
}

func (a *App) refreshStructure(ctx context.Context) (any, error) {
	tree, err := a.Evaluations.RefreshStructure(ctx)
	if err != nil {
		a.Metrics.BackendFailure()
		return nil, err
	}
	a.Metrics.StructureRefreshed()
	subGroups := 0
	for _, group := range tree.Groups {
		subGroups += len(group.SubGroups)
	}
	return map[string]any{"groups": len(tree.Groups), "subGroups": subGroups}, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replay", "Retry-After", "X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(a.Sessions))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := a.Metrics.Snapshot()
			if loaded := a.Evaluations.StructureLoadedAt(); !loaded.IsZero() {
				snapshot["structureLoadedAt"] = loaded.UTC().Format(time.RFC3339)
			}
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(a.Sessions, a.Audit).RegisterRoutes(r)
		evaluationhandler.NewHandler(a.Evaluations, a.Metrics, a.Idempotency, a.Audit, cfg.ReportPageSize).RegisterRoutes(r)
		audithandler.NewHandler(a.Audit).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// Serve runs the HTTP server and background jobs until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.Jobs.Start(ctx)
	a.Jobs.Enqueue(jobs.JobStructureRefresh, a.refreshStructure)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("BCAS HRMS server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		<-a.Jobs.Stop().Done()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-a.Jobs.Stop().Done()
	slog.Info("server stopped")
	return err
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Serve(ctx); err != nil {
		slog.Error("server failed", "err", err)
		stop()
		app.Close()
		os.Exit(1)
	}
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || h.staticPath == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		index := filepath.Join(h.staticPath, h.indexPath)
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
		return
	}

	http.NotFound(w, r)
}
