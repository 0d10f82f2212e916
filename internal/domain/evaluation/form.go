package evaluation

import (
	"fmt"
	"time"
)

// Form is one evaluation session's input. It is either a *FixedForm or a *TreeForm.
type Form interface {
	Variant() Variant
	Employee() int
	Evaluator() int
	isForm()
}

// FixedForm holds ratings for the hard-coded five-section rubric.
type FixedForm struct {
	EmployeeID     int
	EvaluatorID    int
	EvaluationDate time.Time
	DaysAbsent     int
	SEP            Rating
	Comments       string

	rubric  Rubric
	ratings map[string]map[string]Rating
}

func NewFixedForm(rubric Rubric, evaluatorID int, date time.Time) *FixedForm {
	f := &FixedForm{rubric: rubric}
	f.Reset(evaluatorID, date)
	return f
}

func (f *FixedForm) Variant() Variant { return VariantFixed }
func (f *FixedForm) Employee() int    { return f.EmployeeID }
func (f *FixedForm) Evaluator() int   { return f.EvaluatorID }
func (f *FixedForm) isForm()          {}

// Reset returns the form to the state it has when the evaluation page opens.
func (f *FixedForm) Reset(evaluatorID int, date time.Time) {
	f.EmployeeID = 0
	f.EvaluatorID = evaluatorID
	f.EvaluationDate = truncateDay(date)
	f.DaysAbsent = 0
	f.SEP = 0
	f.Comments = ""
	f.ratings = map[string]map[string]Rating{}
}

func (f *FixedForm) SetRating(sectionKey, itemKey string, r Rating) error {
	if sectionKey == SectionSEP {
		if itemKey != ItemSEP {
			return fmt.Errorf("%w: %s.%s", ErrUnknownItem, sectionKey, itemKey)
		}
		return f.SetSEP(r)
	}
	section, ok := f.rubric.Section(sectionKey)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, sectionKey)
	}
	item, ok := section.Item(itemKey)
	if !ok || item.Derived {
		return fmt.Errorf("%w: %s.%s", ErrUnknownItem, sectionKey, itemKey)
	}
	if err := checkRating(r); err != nil {
		return fmt.Errorf("%s.%s: %w", sectionKey, itemKey, err)
	}
	if f.ratings[sectionKey] == nil {
		f.ratings[sectionKey] = map[string]Rating{}
	}
	f.ratings[sectionKey][itemKey] = r
	return nil
}

func (f *FixedForm) ClearRating(sectionKey, itemKey string) {
	if sectionKey == SectionSEP {
		f.SEP = 0
		return
	}
	delete(f.ratings[sectionKey], itemKey)
}

func (f *FixedForm) SetSEP(r Rating) error {
	if err := checkRating(r); err != nil {
		return fmt.Errorf("sep: %w", err)
	}
	f.SEP = r
	return nil
}

func (f *FixedForm) SetDaysAbsent(days int) error {
	if days < 0 {
		return ErrNegativeAbsences
	}
	f.DaysAbsent = days
	return nil
}

// Rating returns the rating for one item, or 0 when it has not been rated.
func (f *FixedForm) Rating(sectionKey, itemKey string) Rating {
	if sectionKey == SectionSEP {
		return f.SEP
	}
	return f.ratings[sectionKey][itemKey]
}

// SectionRatings returns every item of the section keyed by item, 0 for unrated items.
// The derived days-absent item carries the raw day count.
func (f *FixedForm) SectionRatings(sectionKey string) map[string]int {
	section, ok := f.rubric.Section(sectionKey)
	if !ok {
		return nil
	}
	out := make(map[string]int, len(section.Items))
	for _, item := range section.Items {
		if item.Key == ItemDaysAbsent {
			out[item.Key] = f.DaysAbsent
			continue
		}
		out[item.Key] = int(f.ratings[sectionKey][item.Key])
	}
	return out
}

func (f *FixedForm) Rubric() Rubric {
	return f.rubric
}

// Clone copies the form so a failed submission can hand back the untouched input.
func (f *FixedForm) Clone() *FixedForm {
	out := *f
	out.ratings = make(map[string]map[string]Rating, len(f.ratings))
	for section, items := range f.ratings {
		copied := make(map[string]Rating, len(items))
		for k, v := range items {
			copied[k] = v
		}
		out.ratings[section] = copied
	}
	return &out
}

type SubGroupScore struct {
	SubGroupID int    `json:"subGroupID"`
	ScoreValue Rating `json:"scoreValue"`
}

// TreeForm holds one direct rating per subgroup of a backend-configured rubric.
type TreeForm struct {
	EmployeeID     int
	EvaluatorID    int
	EvaluationDate time.Time
	Comments       string

	known  map[int]bool
	scores []SubGroupScore
}

// NewTreeForm builds an empty form. A nil tree accepts any subgroup id.
func NewTreeForm(tree *Tree, evaluatorID int, date time.Time) *TreeForm {
	f := &TreeForm{EvaluatorID: evaluatorID, EvaluationDate: date}
	if tree != nil {
		f.known = tree.SubGroupIDs()
	}
	return f
}

func (f *TreeForm) Variant() Variant { return VariantTree }
func (f *TreeForm) Employee() int    { return f.EmployeeID }
func (f *TreeForm) Evaluator() int   { return f.EvaluatorID }
func (f *TreeForm) isForm()          {}

// SetScore replaces any earlier score for the subgroup; the newest answer moves to the end.
func (f *TreeForm) SetScore(subGroupID int, r Rating) error {
	if f.known != nil && !f.known[subGroupID] {
		return fmt.Errorf("%w: %d", ErrUnknownSubGroup, subGroupID)
	}
	if err := checkRating(r); err != nil {
		return fmt.Errorf("subgroup %d: %w", subGroupID, err)
	}
	kept := f.scores[:0]
	for _, s := range f.scores {
		if s.SubGroupID != subGroupID {
			kept = append(kept, s)
		}
	}
	f.scores = append(kept, SubGroupScore{SubGroupID: subGroupID, ScoreValue: r})
	return nil
}

func (f *TreeForm) Scores() []SubGroupScore {
	out := make([]SubGroupScore, len(f.scores))
	copy(out, f.scores)
	return out
}

func (f *TreeForm) Reset() {
	f.EmployeeID = 0
	f.Comments = ""
	f.scores = nil
}

func (f *TreeForm) Clone() *TreeForm {
	out := *f
	out.scores = f.Scores()
	return &out
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
