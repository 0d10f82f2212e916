package evaluation

import (
	"time"
)

const dateLayout = "2006-01-02"

type Evaluator struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FixedRecord is the payload stored for a fixed-form evaluation.
type FixedRecord struct {
	EmployeeID             int            `json:"employeeId"`
	EvaluatorID            int            `json:"evaluatorId"`
	EvaluationDate         string         `json:"evaluationDate"`
	TeachingQualifications map[string]int `json:"teachingQualifications"`
	ClassAuthority         map[string]int `json:"classAuthority"`
	Punctuality            map[string]int `json:"punctuality"`
	OtherQualifications    map[string]int `json:"otherQualifications"`
	SEP                    int            `json:"sep"`
	Comments               string         `json:"comments"`
	FinalScore             float64        `json:"finalScore"`
	Status                 string         `json:"status"`
	CreatedAt              time.Time      `json:"createdAt"`
	EvaluatorName          string         `json:"evaluatorName"`
	ScoreStrategy          Strategy       `json:"scoreStrategy"`
	AttendanceRating       float64        `json:"attendanceRating"`
}

// TreeRecord is the payload stored for a dynamic-rubric evaluation.
type TreeRecord struct {
	EmployeeID     int             `json:"employeeID"`
	EvaluatorID    int             `json:"evaluatorID"`
	EvaluationDate time.Time       `json:"evaluationDate"`
	Comments       string          `json:"comments"`
	Scores         []SubGroupScore `json:"scores"`
	EvaluatorName  string          `json:"evaluatorName,omitempty"`
}

// ValidateSubmission is the only gate before a record is built.
func ValidateSubmission(f Form) error {
	if f == nil || f.Employee() <= 0 {
		return ErrEmployeeRequired
	}
	if f.Evaluator() <= 0 {
		return ErrEvaluatorRequired
	}
	return nil
}

type Builder struct {
	Now func() time.Time
}

func NewBuilder() Builder {
	return Builder{Now: time.Now}
}

func (b Builder) now() time.Time {
	if b.Now == nil {
		return time.Now().UTC()
	}
	return b.Now().UTC()
}

func (b Builder) Fixed(f *FixedForm, score Breakdown, evaluatorName string) FixedRecord {
	date := f.EvaluationDate
	if date.IsZero() {
		date = b.now()
	}
	return FixedRecord{
		EmployeeID:             f.EmployeeID,
		EvaluatorID:            f.EvaluatorID,
		EvaluationDate:         date.Format(dateLayout),
		TeachingQualifications: f.SectionRatings(SectionTeaching),
		ClassAuthority:         f.SectionRatings(SectionAuthority),
		Punctuality:            f.SectionRatings(SectionPunctual),
		OtherQualifications:    f.SectionRatings(SectionOther),
		SEP:                    int(f.SEP),
		Comments:               f.Comments,
		FinalScore:             score.Composite,
		Status:                 StatusCompleted,
		CreatedAt:              b.now(),
		EvaluatorName:          evaluatorName,
		ScoreStrategy:          score.Strategy,
		AttendanceRating:       score.AttendanceRating,
	}
}

func (b Builder) Tree(f *TreeForm, evaluator Evaluator) TreeRecord {
	date := f.EvaluationDate
	if date.IsZero() {
		date = b.now()
	}
	return TreeRecord{
		EmployeeID:     f.EmployeeID,
		EvaluatorID:    f.EvaluatorID,
		EvaluationDate: date.UTC(),
		Comments:       f.Comments,
		Scores:         f.Scores(),
		EvaluatorName:  evaluator.Name,
	}
}
