package evaluation

import (
	"fmt"
	"math"
	"time"
)

// Record is an evaluation as the persistence collaborator returns it.
type Record struct {
	EvaluationID   int       `json:"evaluationID"`
	EmployeeID     int       `json:"employeeID"`
	EmployeeName   string    `json:"employeeName"`
	EvaluatorID    int       `json:"evaluatorID"`
	EvaluatorName  string    `json:"evaluatorName"`
	EvaluationDate time.Time `json:"evaluationDate"`
	FinalScore     *float64  `json:"finalScore"`
	Comments       string    `json:"comments"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Scored reports whether the record carries a composite. Tree records only
// have one when the backend computed it.
func (r Record) Scored() bool {
	return r.FinalScore != nil
}

type ReportRow struct {
	EvaluationID   int      `json:"evaluationID"`
	EmployeeName   string   `json:"employeeName"`
	EvaluatorName  string   `json:"evaluatorName"`
	EvaluationDate string   `json:"evaluationDate"`
	FinalScore     *float64 `json:"finalScore"`
	ScoreDisplay   string   `json:"scoreDisplay"`
}

type Page struct {
	Limit  int
	Offset int
}

type Report struct {
	Rows   []ReportRow `json:"rows"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// Project maps records to report rows, keeping the order the source returned.
func Project(records []Record, page Page) Report {
	if page.Limit <= 0 {
		page.Limit = DefaultPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	report := Report{Rows: []ReportRow{}, Total: len(records), Limit: page.Limit, Offset: page.Offset}
	if page.Offset >= len(records) {
		return report
	}
	end := min(page.Offset+page.Limit, len(records))
	for _, rec := range records[page.Offset:end] {
		row := ReportRow{
			EvaluationID:   rec.EvaluationID,
			EmployeeName:   rec.EmployeeName,
			EvaluatorName:  rec.EvaluatorName,
			EvaluationDate: formatDate(rec.EvaluationDate),
			FinalScore:     rec.FinalScore,
		}
		if rec.Scored() {
			row.ScoreDisplay = fmt.Sprintf("%.2f", *rec.FinalScore)
		}
		report.Rows = append(report.Rows, row)
	}
	return report
}

type Summary struct {
	Evaluations        int             `json:"evaluations"`
	Scored             int             `json:"scored"`
	Employees          int             `json:"employees"`
	AverageScore       float64         `json:"averageScore"`
	MinScore           float64         `json:"minScore"`
	MaxScore           float64         `json:"maxScore"`
	RatingDistribution map[string]int  `json:"ratingDistribution"`
	LatestByEmployee   map[int]float64 `json:"latestByEmployee"`
}

// Summarize aggregates historical evaluations. Scores are bucketed by rounding
// to the nearest whole rating. Unscored records count as evaluations only.
func Summarize(records []Record) Summary {
	summary := Summary{
		RatingDistribution: map[string]int{},
		LatestByEmployee:   map[int]float64{},
	}
	latest := map[int]time.Time{}
	summary.MinScore = math.Inf(1)
	summary.MaxScore = math.Inf(-1)
	total := 0.0
	for _, rec := range records {
		summary.Evaluations++
		if !rec.Scored() {
			continue
		}
		score := *rec.FinalScore
		summary.Scored++
		total += score
		summary.MinScore = math.Min(summary.MinScore, score)
		summary.MaxScore = math.Max(summary.MaxScore, score)
		key := fmt.Sprintf("%d", int(score+0.5))
		summary.RatingDistribution[key]++

		when := rec.EvaluationDate
		if when.IsZero() {
			when = rec.CreatedAt
		}
		if prev, ok := latest[rec.EmployeeID]; !ok || !when.Before(prev) {
			latest[rec.EmployeeID] = when
			summary.LatestByEmployee[rec.EmployeeID] = score
		}
	}
	summary.Employees = len(summary.LatestByEmployee)
	if summary.Scored == 0 {
		summary.MinScore, summary.MaxScore = 0, 0
		return summary
	}
	summary.AverageScore = Round2(total / float64(summary.Scored))
	return summary
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
