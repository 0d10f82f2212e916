package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionEvaluationFixed = "evaluation.fixed.submit"
	ActionEvaluationTree  = "evaluation.tree.submit"
	ActionSessionLogin    = "session.login"
	ActionSessionLogout   = "session.logout"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is what a caller knows at the time of the action.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	After      any
}

type Filter struct {
	Action     string
	EntityType string
	ActorUser  string
}

type Service struct {
	DB  *sql.DB
	Now func() time.Time
}

func New(db *sql.DB) *Service {
	return &Service{DB: db, Now: time.Now}
}

// Record appends one event. A nil service records nothing.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.DB == nil {
		return nil
	}
	var afterJSON any
	if entry.After != nil {
		payload, err := json.Marshal(entry.After)
		if err != nil {
			return err
		}
		afterJSON = string(payload)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, request_id, ip, after_json, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, entry.RequestID, entry.IP, afterJSON, now().Unix())
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery("SELECT id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at, after_json", filter)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			evt       Event
			createdAt int64
			after     sql.NullString
		)
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &createdAt, &after); err != nil {
			return nil, err
		}
		evt.CreatedAt = time.Unix(createdAt, 0).UTC()
		if includeDetails && after.Valid {
			evt.After = json.RawMessage(after.String)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_events WHERE 1 = 1"
	args := []any{}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filter.EntityType)
	}
	if filter.ActorUser != "" {
		query += fmt.Sprintf(" AND actor_user_id = $%d", len(args)+1)
		args = append(args, filter.ActorUser)
	}
	return query, args
}
