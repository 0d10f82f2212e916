package audit

import (
	"context"
	"testing"
	"time"

	"github.com/grunt24/bcas-hrms/internal/platform/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	svc := New(conn)
	svc.Now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecordAndListNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entries := []Entry{
		{ActorID: "9", Action: ActionSessionLogin, EntityType: "session", EntityID: "s-1", IP: "203.0.113.5"},
		{ActorID: "9", Action: ActionEvaluationFixed, EntityType: "evaluation", EntityID: "1", RequestID: "req-1", After: map[string]any{"finalScore": 4}},
		{ActorID: "12", Action: ActionEvaluationTree, EntityType: "evaluation", EntityID: "2"},
	}
	for _, entry := range entries {
		if err := svc.Record(ctx, entry); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	total, err := svc.Count(ctx, Filter{})
	if err != nil || total != 3 {
		t.Fatalf("expected 3 events, got %d (%v)", total, err)
	}
	events, err := svc.List(ctx, Filter{}, false, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 || events[0].Action != ActionEvaluationTree || events[2].Action != ActionSessionLogin {
		t.Fatalf("unexpected order %+v", events)
	}
	if events[1].After != nil {
		t.Fatal("expected details omitted unless requested")
	}
	if !events[0].CreatedAt.Equal(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", events[0].CreatedAt)
	}
}

func TestListFiltersAndDetails(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_ = svc.Record(ctx, Entry{ActorID: "9", Action: ActionEvaluationFixed, EntityType: "evaluation", EntityID: "1", After: map[string]any{"employeeId": 4}})
	_ = svc.Record(ctx, Entry{ActorID: "12", Action: ActionEvaluationFixed, EntityType: "evaluation", EntityID: "2"})
	_ = svc.Record(ctx, Entry{ActorID: "9", Action: ActionSessionLogout, EntityType: "session"})

	events, err := svc.List(ctx, Filter{Action: ActionEvaluationFixed, ActorUser: "9"}, true, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].EntityID != "1" {
		t.Fatalf("unexpected filtered events %+v", events)
	}
	if string(events[0].After) != `{"employeeId":4}` {
		t.Fatalf("unexpected details %s", events[0].After)
	}

	total, _ := svc.Count(ctx, Filter{EntityType: "evaluation"})
	if total != 2 {
		t.Fatalf("expected 2 evaluation events, got %d", total)
	}
	page, _ := svc.List(ctx, Filter{}, false, 1, 1)
	if len(page) != 1 || page[0].ActorID != "12" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestRecordOnNilServiceIsNoop(t *testing.T) {
	var svc *Service
	if err := svc.Record(context.Background(), Entry{Action: ActionSessionLogin}); err != nil {
		t.Fatalf("expected nil service to ignore records, got %v", err)
	}
}
