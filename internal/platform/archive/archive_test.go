package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEvaluationRepositoryRoundTrip(t *testing.T) {
	repo := NewEvaluationRepository(openTestDB(t))
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	fixed, err := repo.CreateFixed(ctx, evaluation.FixedRecord{
		EmployeeID:             4,
		EvaluatorID:            9,
		EvaluationDate:         "2025-06-01",
		TeachingQualifications: map[string]int{"mastery": 5},
		FinalScore:             4.25,
		Comments:               "Strong term",
		Status:                 evaluation.StatusCompleted,
		CreatedAt:              created,
		EvaluatorName:          "Maria Santos",
	})
	if err != nil {
		t.Fatalf("create fixed: %v", err)
	}
	if fixed.EvaluationID == 0 {
		t.Fatal("expected generated evaluation id")
	}

	repo.now = func() time.Time { return created.Add(time.Hour) }
	if _, err := repo.CreateTree(ctx, evaluation.TreeRecord{
		EmployeeID:     5,
		EvaluatorID:    2,
		EvaluationDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Scores:         []evaluation.SubGroupScore{{SubGroupID: 1, ScoreValue: 4}},
	}); err != nil {
		t.Fatalf("create tree: %v", err)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].EmployeeID != 5 || records[1].EmployeeID != 4 {
		t.Fatalf("expected newest first, got %+v", records)
	}
	if records[0].Scored() {
		t.Fatalf("expected tree record without a composite, got %v", *records[0].FinalScore)
	}
	got := records[1]
	if !got.Scored() || *got.FinalScore != 4.25 || got.Comments != "Strong term" || got.EvaluatorName != "Maria Santos" {
		t.Fatalf("fixed record lost data: %+v", got)
	}
	if got.EvaluationDate.Format(dateLayout) != "2025-06-01" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected dates %v %v", got.EvaluationDate, got.CreatedAt)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	sess := session.StoredSession{
		ID:        "s-1",
		User:      session.User{UserID: 3, EmployeeID: 30, Username: "jdoe", Roles: []session.Role{{RoleID: 1, RoleName: "Administrator"}}},
		TokenEnc:  []byte{1, 2, 3},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.User.EmployeeID != 30 || len(got.User.Roles) != 1 || string(got.TokenEnc) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected session %+v", got)
	}
	if !got.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", got.ExpiresAt)
	}

	removed, err := store.DeleteExpired(ctx, now.Add(2*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("expected one expired session removed, got %d (%v)", removed, err)
	}
	if _, err := store.Get(ctx, "s-1"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "s-1"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on delete, got %v", err)
	}
}

func TestIdempotencyStoreReplayAndConflict(t *testing.T) {
	store := NewIdempotencyStore(openTestDB(t))
	ctx := context.Background()
	hash := RequestHash([]byte(`{"employeeId":4}`))

	if _, found, err := store.Check(ctx, "9", "evaluation.fixed", "key-1", hash); err != nil || found {
		t.Fatalf("expected unseen key, found=%v err=%v", found, err)
	}
	body := json.RawMessage(`{"success":true}`)
	if err := store.Save(ctx, "9", "evaluation.fixed", "key-1", hash, StoredResponse{Status: 201, Body: body}); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, found, err := store.Check(ctx, "9", "evaluation.fixed", "key-1", hash)
	if err != nil || !found || stored.Status != 201 || string(stored.Body) != string(body) {
		t.Fatalf("expected replay, got %+v found=%v err=%v", stored, found, err)
	}

	other := RequestHash([]byte(`{"employeeId":5}`))
	if _, _, err := store.Check(ctx, "9", "evaluation.fixed", "key-1", other); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict on check, got %v", err)
	}
	if err := store.Save(ctx, "9", "evaluation.fixed", "key-1", other, StoredResponse{Status: 201, Body: body}); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict on save, got %v", err)
	}
	if _, found, _ := store.Check(ctx, "10", "evaluation.fixed", "key-1", other); found {
		t.Fatal("expected keys to be scoped per owner")
	}
}
