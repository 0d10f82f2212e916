package evaluation

import (
	"errors"
	"math"
	"testing"
)

func TestFixedRubricWeightsSumToOne(t *testing.T) {
	rubric := FixedRubric()
	if math.Abs(rubric.WeightSum()-1.0) > 1e-9 {
		t.Fatalf("expected weights to sum to 1.0, got %v", rubric.WeightSum())
	}
	if err := rubric.Validate(); err != nil {
		t.Fatalf("expected fixed rubric to validate, got %v", err)
	}
}

func TestFixedRubricShape(t *testing.T) {
	want := map[string]struct {
		weight float64
		items  int
	}{
		SectionTeaching:  {0.25, 7},
		SectionAuthority: {0.25, 2},
		SectionPunctual:  {0.25, 3},
		SectionOther:     {0.15, 5},
		SectionSEP:       {0.10, 1},
	}
	rubric := FixedRubric()
	if len(rubric.Sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(rubric.Sections))
	}
	for key, expected := range want {
		section, ok := rubric.Section(key)
		if !ok {
			t.Fatalf("missing section %s", key)
		}
		if section.Weight != expected.weight || len(section.Items) != expected.items {
			t.Fatalf("section %s: got weight %v items %d", key, section.Weight, len(section.Items))
		}
	}
	item, ok := rubric.Sections[2].Item(ItemDaysAbsent)
	if !ok || !item.Derived {
		t.Fatalf("expected derived days-absent item in punctuality, got %+v", item)
	}
}

func TestRubricValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rubric)
	}{
		{
			name:   "weights do not sum to one",
			mutate: func(r *Rubric) { r.Sections[3].Weight = 0.20 },
		},
		{
			name:   "duplicate section",
			mutate: func(r *Rubric) { r.Sections[1].Key = r.Sections[0].Key },
		},
		{
			name:   "empty section",
			mutate: func(r *Rubric) { r.Sections[1].Items = nil },
		},
		{
			name:   "negative weight",
			mutate: func(r *Rubric) { r.Sections[0].Weight = -0.25 },
		},
		{
			name:   "duplicate item",
			mutate: func(r *Rubric) { r.Sections[1].Items[1].Key = r.Sections[1].Items[0].Key },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rubric := FixedRubric()
			tc.mutate(&rubric)
			if err := rubric.Validate(); !errors.Is(err, ErrInvalidRubric) {
				t.Fatalf("expected ErrInvalidRubric, got %v", err)
			}
		})
	}
}

func TestTreeValidateRejectsDuplicateSubGroups(t *testing.T) {
	tree := Tree{Groups: []Group{
		{GroupID: 1, SubGroups: []SubGroup{{SubGroupID: 4}}},
		{GroupID: 2, SubGroups: []SubGroup{{SubGroupID: 4}}},
	}}
	if err := tree.Validate(); !errors.Is(err, ErrInvalidRubric) {
		t.Fatalf("expected ErrInvalidRubric, got %v", err)
	}
}

func TestScaleLabels(t *testing.T) {
	scale := Scale()
	if len(scale) != 5 {
		t.Fatalf("expected 5 choices, got %d", len(scale))
	}
	if scale[0].Label != "Poor" || scale[4].Label != "Excellent" {
		t.Fatalf("unexpected scale labels %+v", scale)
	}
	if Rating(0).Valid() || Rating(6).Valid() {
		t.Fatal("expected 0 and 6 to be invalid ratings")
	}
}
