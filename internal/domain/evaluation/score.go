package evaluation

import (
	"fmt"
	"math"
)

type SectionScore struct {
	Key          string  `json:"key"`
	Weight       float64 `json:"weight"`
	Average      float64 `json:"average"`
	Rated        int     `json:"rated"`
	Items        int     `json:"items"`
	Contribution float64 `json:"contribution"`
}

// Breakdown is the result of scoring a fixed form. Only Composite is ever persisted.
type Breakdown struct {
	Strategy         Strategy       `json:"strategy"`
	Sections         []SectionScore `json:"sections"`
	AttendanceRating float64        `json:"attendanceRating"`
	Composite        float64        `json:"composite"`
	Complete         bool           `json:"complete"`
}

func (b Breakdown) Section(key string) (SectionScore, bool) {
	for _, s := range b.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return SectionScore{}, false
}

// Scorer computes the weighted composite of a fixed form. It holds no state
// between calls.
type Scorer struct {
	Rubric   Rubric
	Strategy Strategy
}

func NewScorer(rubric Rubric, strategy Strategy) Scorer {
	if strategy == "" {
		strategy = StrategyAttendanceFolded
	}
	return Scorer{Rubric: rubric, Strategy: strategy}
}

// Score never fails: unrated items are left out of their section mean and a
// section with nothing rated contributes 0.
func (s Scorer) Score(f *FixedForm) Breakdown {
	out := Breakdown{
		Strategy:         s.Strategy,
		Sections:         make([]SectionScore, 0, len(s.Rubric.Sections)),
		AttendanceRating: AttendanceRating(f.DaysAbsent),
		Complete:         true,
	}
	total := 0.0
	for _, section := range s.Rubric.Sections {
		values, expected := s.sectionValues(section, f)
		score := SectionScore{
			Key:     section.Key,
			Weight:  section.Weight,
			Average: mean(values),
			Rated:   len(values),
			Items:   expected,
		}
		if score.Rated < score.Items {
			out.Complete = false
		}
		score.Contribution = score.Average * section.Weight
		total += score.Contribution
		out.Sections = append(out.Sections, score)
	}
	out.Composite = Round2(total)
	return out
}

// ScoreStrict is Score plus a range check on complete forms.
func (s Scorer) ScoreStrict(f *FixedForm) (Breakdown, error) {
	b := s.Score(f)
	if b.Complete && (b.Composite < minRating || b.Composite > maxRating) {
		return b, fmt.Errorf("%w: %.2f", ErrScoreOutOfRange, b.Composite)
	}
	return b, nil
}

func (s Scorer) sectionValues(section Section, f *FixedForm) ([]float64, int) {
	if section.Key == SectionSEP {
		if f.SEP.Valid() {
			return []float64{float64(f.SEP)}, 1
		}
		return nil, 1
	}
	values := make([]float64, 0, len(section.Items))
	expected := 0
	fold := false
	for _, item := range section.Items {
		if item.Derived {
			if item.Key == ItemDaysAbsent && s.Strategy == StrategyAttendanceFolded {
				fold = true
				expected++
			}
			continue
		}
		expected++
		if r := f.Rating(section.Key, item.Key); r.Valid() {
			values = append(values, float64(r))
		}
	}
	// the attendance rating joins the mean only alongside a rated item, so an
	// untouched section still contributes 0
	if fold && len(values) > 0 {
		values = append(values, AttendanceRating(f.DaysAbsent))
	}
	return values, expected
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TreeResult is what the dynamic rubric yields client-side: the raw subgroup
// scores. The backend owns any composite for this variant, so Composite stays nil.
type TreeResult struct {
	Scores    []SubGroupScore `json:"scores"`
	Answered  int             `json:"answered"`
	SubGroups int             `json:"subGroups"`
	Composite *float64        `json:"composite"`
}

func ScoreTree(f *TreeForm) TreeResult {
	scores := f.Scores()
	return TreeResult{
		Scores:    scores,
		Answered:  len(scores),
		SubGroups: len(f.known),
	}
}
