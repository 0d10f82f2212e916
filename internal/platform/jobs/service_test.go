package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grunt24/bcas-hrms/internal/platform/db"
)

func TestRunNowRecordsJobRuns(t *testing.T) {
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	svc := New(conn)

	if _, err := svc.RunNow(context.Background(), JobSessionPrune, func(ctx context.Context) (any, error) {
		return map[string]any{"pruned": 3}, nil
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	boom := errors.New("backend down")
	if _, err := svc.RunNow(context.Background(), JobStructureRefresh, func(ctx context.Context) (any, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}

	rows, err := conn.Query(`SELECT job_type, status, details_json FROM job_runs ORDER BY started_at, job_type DESC`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	got := map[string][2]string{}
	for rows.Next() {
		var jobType, status, details string
		if err := rows.Scan(&jobType, &status, &details); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got[jobType] = [2]string{status, details}
	}
	if got[JobSessionPrune][0] != "completed" || got[JobSessionPrune][1] != `{"pruned":3}` {
		t.Fatalf("unexpected prune run %+v", got[JobSessionPrune])
	}
	if got[JobStructureRefresh][0] != "failed" || got[JobStructureRefresh][1] != `{"error":"backend down"}` {
		t.Fatalf("unexpected refresh run %+v", got[JobStructureRefresh])
	}
}

func TestWorkerRunsQueuedJobs(t *testing.T) {
	svc := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	done := make(chan struct{})
	svc.Enqueue(JobIdempotencyPrune, func(ctx context.Context) (any, error) {
		close(done)
		return nil, nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queued job did not run")
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	svc := New(nil)
	if err := svc.Schedule("not a schedule", JobSessionPrune, nil); err == nil {
		t.Fatal("expected schedule error")
	}
	if err := svc.Schedule("", JobSessionPrune, nil); err != nil {
		t.Fatalf("expected empty schedule to be skipped, got %v", err)
	}
}
