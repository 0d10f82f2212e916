package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// flexTime accepts the date shapes the backend emits, with or without an offset.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", raw)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// recordDTO is an evaluation as listed by GET Evaluations. Field matching is
// case-insensitive so both employeeId and employeeID decode.
type recordDTO struct {
	EvaluationID   int      `json:"evaluationID"`
	EmployeeID     int      `json:"employeeID"`
	EmployeeName   string   `json:"employeeName"`
	EvaluatorID    int      `json:"evaluatorID"`
	EvaluatorName  string   `json:"evaluatorName"`
	EvaluationDate flexTime `json:"evaluationDate"`
	FinalScore     *float64 `json:"finalScore"`
	Comments       string   `json:"comments"`
	Status         string   `json:"status"`
	CreatedAt      flexTime `json:"createdAt"`
}
