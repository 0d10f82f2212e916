package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
)

// CreateFixed posts a fixed-form evaluation. The backend may answer with the
// stored record or with an empty body.
func (c *Client) CreateFixed(ctx context.Context, rec evaluation.FixedRecord) (evaluation.Record, error) {
	var dto recordDTO
	err := c.do(ctx, "create evaluation", http.MethodPost, c.endpoint("evaluations"), rec, &dto)
	if err != nil && !errors.Is(err, errEmptyBody) {
		return evaluation.Record{}, err
	}
	fallback := evaluation.Record{
		EmployeeID:    rec.EmployeeID,
		EvaluatorID:   rec.EvaluatorID,
		EvaluatorName: rec.EvaluatorName,
		FinalScore:    &rec.FinalScore,
		Comments:      rec.Comments,
		Status:        rec.Status,
		CreatedAt:     rec.CreatedAt,
	}
	if date, err := time.Parse("2006-01-02", rec.EvaluationDate); err == nil {
		fallback.EvaluationDate = date
	}
	return dto.merge(fallback), nil
}

func (c *Client) CreateTree(ctx context.Context, rec evaluation.TreeRecord) (evaluation.Record, error) {
	var dto recordDTO
	err := c.do(ctx, "create evaluation", http.MethodPost, c.endpoint("Evaluations"), rec, &dto)
	if err != nil && !errors.Is(err, errEmptyBody) {
		return evaluation.Record{}, err
	}
	return dto.merge(evaluation.Record{
		EmployeeID:     rec.EmployeeID,
		EvaluatorID:    rec.EvaluatorID,
		EvaluatorName:  rec.EvaluatorName,
		EvaluationDate: rec.EvaluationDate,
		Comments:       rec.Comments,
	}), nil
}

// List returns evaluations in the order the backend sends them.
func (c *Client) List(ctx context.Context) ([]evaluation.Record, error) {
	var dtos []recordDTO
	if err := c.do(ctx, "list evaluations", http.MethodGet, c.endpoint("Evaluations"), nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]evaluation.Record, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, dto.merge(evaluation.Record{}))
	}
	return out, nil
}

// merge overlays the fields the backend returned onto fallback.
func (d recordDTO) merge(fallback evaluation.Record) evaluation.Record {
	out := fallback
	if d.EvaluationID != 0 {
		out.EvaluationID = d.EvaluationID
	}
	if d.EmployeeID != 0 {
		out.EmployeeID = d.EmployeeID
	}
	if d.EmployeeName != "" {
		out.EmployeeName = d.EmployeeName
	}
	if d.EvaluatorID != 0 {
		out.EvaluatorID = d.EvaluatorID
	}
	if d.EvaluatorName != "" {
		out.EvaluatorName = d.EvaluatorName
	}
	if !d.EvaluationDate.IsZero() {
		out.EvaluationDate = d.EvaluationDate.Time
	}
	if d.FinalScore != nil {
		out.FinalScore = d.FinalScore
	}
	if d.Comments != "" {
		out.Comments = d.Comments
	}
	if d.Status != "" {
		out.Status = d.Status
	}
	if !d.CreatedAt.IsZero() {
		out.CreatedAt = d.CreatedAt.Time
	}
	return out
}
