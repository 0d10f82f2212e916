package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
)

const dateLayout = "2006-01-02"

// EvaluationRepository keeps submitted evaluations in the local database. It is
// used in place of the HR backend when EVALUATION_STORE=local.
type EvaluationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db, now: time.Now}
}

func (r *EvaluationRepository) CreateFixed(ctx context.Context, rec evaluation.FixedRecord) (evaluation.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return evaluation.Record{}, err
	}
	stored := evaluation.Record{
		EmployeeID:    rec.EmployeeID,
		EvaluatorID:   rec.EvaluatorID,
		EvaluatorName: rec.EvaluatorName,
		FinalScore:    &rec.FinalScore,
		Comments:      rec.Comments,
		Status:        rec.Status,
		CreatedAt:     rec.CreatedAt,
	}
	if date, err := time.Parse(dateLayout, rec.EvaluationDate); err == nil {
		stored.EvaluationDate = date
	}
	return r.insert(ctx, string(evaluation.VariantFixed), rec.EvaluationDate, payload, stored)
}

func (r *EvaluationRepository) CreateTree(ctx context.Context, rec evaluation.TreeRecord) (evaluation.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return evaluation.Record{}, err
	}
	stored := evaluation.Record{
		EmployeeID:     rec.EmployeeID,
		EvaluatorID:    rec.EvaluatorID,
		EvaluatorName:  rec.EvaluatorName,
		EvaluationDate: rec.EvaluationDate,
		Comments:       rec.Comments,
		Status:         evaluation.StatusCompleted,
		CreatedAt:      r.now().UTC(),
	}
	return r.insert(ctx, string(evaluation.VariantTree), rec.EvaluationDate.Format(dateLayout), payload, stored)
}

func (r *EvaluationRepository) insert(ctx context.Context, variant, date string, payload []byte, rec evaluation.Record) (evaluation.Record, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
    INSERT INTO evaluations (variant, employee_id, evaluator_id, evaluator_name, evaluation_date, final_score, comments, status, payload_json, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, variant, rec.EmployeeID, rec.EvaluatorID, rec.EvaluatorName, date, rec.FinalScore, rec.Comments, rec.Status, string(payload), rec.CreatedAt.Unix()).Scan(&id)
	if err != nil {
		return evaluation.Record{}, fmt.Errorf("insert evaluation: %w", err)
	}
	rec.EvaluationID = int(id)
	return rec, nil
}

// List returns archived evaluations newest first.
func (r *EvaluationRepository) List(ctx context.Context) ([]evaluation.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
    SELECT id, employee_id, evaluator_id, evaluator_name, evaluation_date, final_score, comments, status, created_at
    FROM evaluations
    ORDER BY created_at DESC, id DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []evaluation.Record{}
	for rows.Next() {
		var (
			rec       evaluation.Record
			date      string
			score     sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(&rec.EvaluationID, &rec.EmployeeID, &rec.EvaluatorID, &rec.EvaluatorName, &date, &score, &rec.Comments, &rec.Status, &createdAt); err != nil {
			return nil, err
		}
		if score.Valid {
			rec.FinalScore = &score.Float64
		}
		if parsed, err := time.Parse(dateLayout, date); err == nil {
			rec.EvaluationDate = parsed
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
