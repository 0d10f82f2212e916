package evaluation

import (
	"errors"
	"testing"
	"time"
)

func TestFixedFormRejectsInvalidRatings(t *testing.T) {
	f := newForm()
	tests := []struct {
		name    string
		section string
		item    string
		rating  Rating
		want    error
	}{
		{"zero", SectionTeaching, "mastery", 0, ErrRatingOutOfRange},
		{"six", SectionTeaching, "mastery", 6, ErrRatingOutOfRange},
		{"unknown section", "leadership", "vision", 3, ErrUnknownSection},
		{"unknown item", SectionAuthority, "seating", 3, ErrUnknownItem},
		{"derived item", SectionPunctual, ItemDaysAbsent, 3, ErrUnknownItem},
		{"sep out of range", SectionSEP, ItemSEP, 9, ErrRatingOutOfRange},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.SetRating(tc.section, tc.item, tc.rating); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if got := NewScorer(FixedRubric(), StrategyAttendanceDisplayOnly).Score(f); got.Composite != 0 {
		t.Fatalf("expected rejected ratings to stay out of aggregation, got %v", got.Composite)
	}
}

func TestFixedFormDaysAbsent(t *testing.T) {
	f := newForm()
	if err := f.SetDaysAbsent(-1); !errors.Is(err, ErrNegativeAbsences) {
		t.Fatalf("expected ErrNegativeAbsences, got %v", err)
	}
	if err := f.SetDaysAbsent(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ratings := f.SectionRatings(SectionPunctual)
	if ratings[ItemDaysAbsent] != 3 || ratings["tardiness"] != 0 {
		t.Fatalf("unexpected punctuality payload %+v", ratings)
	}
}

func TestFixedFormResetAndClone(t *testing.T) {
	f := newForm()
	f.EmployeeID = 12
	f.Comments = "good"
	fillAll(t, f, 4)

	clone := f.Clone()
	f.Reset(7, time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))

	if f.EmployeeID != 0 || f.Comments != "" || f.Rating(SectionTeaching, "mastery") != 0 || f.SEP != 0 {
		t.Fatalf("expected reset form, got %+v", f)
	}
	if f.EvaluatorID != 7 || f.EvaluationDate.Hour() != 0 {
		t.Fatalf("expected evaluator kept and date truncated, got %+v", f)
	}
	if clone.EmployeeID != 12 || clone.Rating(SectionTeaching, "mastery") != 4 || clone.SEP != 4 {
		t.Fatalf("expected clone to keep original ratings, got %+v", clone)
	}
}

func TestTreeFormReplacesScores(t *testing.T) {
	tree := &Tree{Groups: []Group{{GroupID: 1, SubGroups: []SubGroup{{SubGroupID: 1}, {SubGroupID: 2}}}}}
	f := NewTreeForm(tree, 5, time.Now())

	_ = f.SetScore(1, 2)
	_ = f.SetScore(2, 3)
	_ = f.SetScore(1, 5)

	scores := f.Scores()
	if len(scores) != 2 {
		t.Fatalf("expected two scores, got %+v", scores)
	}
	if scores[0].SubGroupID != 2 || scores[1].SubGroupID != 1 || scores[1].ScoreValue != 5 {
		t.Fatalf("expected replaced score to move last, got %+v", scores)
	}
	if err := f.SetScore(99, 3); !errors.Is(err, ErrUnknownSubGroup) {
		t.Fatalf("expected ErrUnknownSubGroup, got %v", err)
	}
	if err := f.SetScore(2, 0); !errors.Is(err, ErrRatingOutOfRange) {
		t.Fatalf("expected ErrRatingOutOfRange, got %v", err)
	}
}

func TestFormsAreTaggedByVariant(t *testing.T) {
	forms := []Form{newForm(), NewTreeForm(nil, 1, time.Now())}
	if forms[0].Variant() != VariantFixed || forms[1].Variant() != VariantTree {
		t.Fatalf("unexpected variants %s %s", forms[0].Variant(), forms[1].Variant())
	}
}
