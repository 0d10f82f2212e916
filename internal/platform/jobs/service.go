package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	JobStructureRefresh = "structure_refresh"
	JobSessionPrune     = "session_prune"
	JobIdempotencyPrune = "idempotency_prune"
)

const jobTimeout = 2 * time.Minute

type RunFunc func(context.Context) (any, error)

// Service runs background jobs on a single worker. Scheduled jobs are queued
// by cron; job runs are recorded in job_runs when a database is attached.
type Service struct {
	DB    *sql.DB
	queue chan job
	cron  *cron.Cron
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db *sql.DB) *Service {
	return &Service{
		DB:    db,
		queue: make(chan job, 128),
		cron:  cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Schedule queues jobType on the cron spec. An empty spec disables the job.
func (s *Service) Schedule(spec, jobType string, run RunFunc) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Enqueue(jobType, run) }); err != nil {
		return fmt.Errorf("schedule %s: %w", jobType, err)
	}
	slog.Info("job scheduled", "jobType", jobType, "schedule", spec)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that is done once running
// cron callbacks have returned.
func (s *Service) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Service) Enqueue(jobType string, run RunFunc) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			if _, err := s.runJob(runCtx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
			cancel()
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		id := uuid.NewString()
		if _, err := s.DB.ExecContext(ctx, `
      INSERT INTO job_runs (id, job_type, status, started_at)
      VALUES ($1,$2,$3,$4)
    `, id, j.Type, "running", time.Now().Unix()); err != nil {
			slog.Warn("job run insert failed", "err", err)
		} else {
			runID = id
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.ExecContext(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = $3
      WHERE id = $4
    `, status, string(detailsJSON), time.Now().Unix(), runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}
