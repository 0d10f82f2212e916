package evaluation

import (
	"fmt"
	"math"
)

type Item struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	Indicators []string `json:"indicators,omitempty"`
	// Derived items are not rated on the 1-5 scale; their value comes from another input.
	Derived bool `json:"derived,omitempty"`
}

type Section struct {
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Weight float64 `json:"weight"`
	Items  []Item  `json:"items"`
}

type Rubric struct {
	Sections []Section `json:"sections"`
}

func (s Section) Item(key string) (Item, bool) {
	for _, item := range s.Items {
		if item.Key == key {
			return item, true
		}
	}
	return Item{}, false
}

func (r Rubric) Section(key string) (Section, bool) {
	for _, section := range r.Sections {
		if section.Key == key {
			return section, true
		}
	}
	return Section{}, false
}

func (r Rubric) WeightSum() float64 {
	sum := 0.0
	for _, section := range r.Sections {
		sum += section.Weight
	}
	return sum
}

// Validate checks the structural invariants the composite depends on.
func (r Rubric) Validate() error {
	if len(r.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidRubric)
	}
	seen := map[string]bool{}
	for _, section := range r.Sections {
		if section.Key == "" || seen[section.Key] {
			return fmt.Errorf("%w: duplicate or empty section key %q", ErrInvalidRubric, section.Key)
		}
		seen[section.Key] = true
		if section.Weight < 0 || section.Weight > 1 {
			return fmt.Errorf("%w: section %s weight %.4f outside [0,1]", ErrInvalidRubric, section.Key, section.Weight)
		}
		if len(section.Items) == 0 {
			return fmt.Errorf("%w: section %s has no items", ErrInvalidRubric, section.Key)
		}
		items := map[string]bool{}
		for _, item := range section.Items {
			if item.Key == "" || items[item.Key] {
				return fmt.Errorf("%w: duplicate or empty item key %q in %s", ErrInvalidRubric, item.Key, section.Key)
			}
			items[item.Key] = true
		}
	}
	if sum := r.WeightSum(); math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", ErrInvalidRubric, sum)
	}
	return nil
}

// FixedRubric returns the five-section faculty evaluation form.
func FixedRubric() Rubric {
	return Rubric{Sections: []Section{
		{
			Key:    SectionTeaching,
			Title:  "Teaching Profession Qualifications",
			Weight: 0.25,
			Items: []Item{
				{Key: "mastery", Title: "Mastery of the Subject Matter", Indicators: []string{
					"Gives knowledgeable answers to students' questions",
					"Can simplify complex concepts/principles/theories to facilitate learning",
					"Shows expertise in the subject being taught",
					"Relates the subject matter to practical life situations/problems",
				}},
				{Key: "strategies", Title: "Teaching Strategies", Indicators: []string{
					"Uses varied appropriate instructional aids skillfully and efficiently",
					"Employs teaching strategies that take into account students' varied learning styles, interests and experiences",
					"Presents the lesson in an interesting way to stimulate students' interest",
					"Shows sensitivity to students' learning difficulties, concerns and expectations",
				}},
				{Key: "communication", Title: "Communication Skills", Indicators: []string{
					"Communicates fluently either in English or in Filipino and refrains from using Taglish",
					"Speaks clearly and audibly",
					"Does not lecture to the board",
					"Does not have distracting speech mannerisms",
					"Makes appropriate use of verbal and nonverbal language",
					"Gives clear verbal or written instructions/directions",
				}},
				{Key: "evaluation", Title: "Evaluation Skills", Indicators: []string{
					"Returns checked test papers, projects and other students' performance outputs",
					"Clarifies criteria in grading learning outputs",
					"Practices fairness in grading students' learning outputs",
					"Involves the students in setting the criteria for performance-based outputs",
				}},
				{Key: "personal", Title: "Personal Qualities", Indicators: []string{
					"Observes problems in the use of language",
					"Manifests good relationship with students, peers and administrators",
					"Accepts comments, suggestions and criticisms positively",
				}},
				{Key: "professional", Title: "Professional Qualities", Indicators: []string{
					"Practices fairness in setting disputes/disagreements/misunderstandings",
					"Upgrades oneself professionally by pursuing graduate studies",
					"Attends seminars/workshops relevant for professional growth",
				}},
				{Key: "reports", Title: "Submission of Reports", Indicators: []string{
					"Submits needed reports (tests, grades, syllabus/course outline, etc.) on time",
					"Follows required format of reports",
					"Exhibits accuracy and quality in the submitted reports",
				}},
			},
		},
		{
			Key:    SectionAuthority,
			Title:  "Class Authority and Control Qualifications",
			Weight: 0.25,
			Items: []Item{
				{Key: "management", Title: "Classroom Management", Indicators: []string{
					"Observes official time in coming to and leaving the class",
					"Employs efficient management of routine activities",
					"Discourages answers in chorus, unless the subject matter requires so",
					"Checks orderliness and cleanliness",
					"Provides conducive and stimulating environment to the students",
				}},
				{Key: "discipline", Title: "Class Discipline", Indicators: []string{
					"Implements positive reinforcement for negative behavior of students",
					"Does not impose corporal punishment",
					"Monitors students' behavior during breaks and official school activities",
					"Maintains order and discipline of the assigned class in and out of the classroom",
					"Serves as a good example to his/her students",
				}},
			},
		},
		{
			Key:    SectionPunctual,
			Title:  "Punctuality and Attendance",
			Weight: 0.25,
			Items: []Item{
				{Key: "tardiness", Title: "Tardiness", Indicators: []string{
					"Observes official time in reporting to work",
					"Demonstrates conscientiousness in following school policy on filing for leave",
				}},
				{Key: "absences", Title: "Absences", Indicators: []string{
					"Ensures compliance to teaching obligations during absence",
				}},
				{Key: ItemDaysAbsent, Title: "Number of Days Absent (for the whole school year)", Derived: true},
			},
		},
		{
			Key:    SectionOther,
			Title:  "Other Qualifications",
			Weight: 0.15,
			Items: []Item{
				{Key: "achievements", Title: "Achievements", Indicators: []string{
					"Has earned significant achievements for the school/students for the year/period",
				}},
				{Key: "rules", Title: "School Rules", Indicators: []string{
					"Conforms with the school rules and regulations",
				}},
				{Key: "community", Title: "Community Service", Indicators: []string{
					"Participates to / renders services for community activities",
				}},
				{Key: "initiatives", Title: "Initiatives", Indicators: []string{
					"Initiates useful activities for the school/students",
				}},
				{Key: "extraTasks", Title: "Extra Tasks", Indicators: []string{
					"Is willing to do extra tasks",
				}},
			},
		},
		{
			Key:    SectionSEP,
			Title:  "Speak English Policy (SEP)",
			Weight: 0.10,
			Items: []Item{
				{Key: ItemSEP, Title: "Speak English Policy", Indicators: []string{
					"Consistently follows SEP",
				}},
			},
		},
	}}
}

// Tree is the backend-configured group/subgroup/item rubric.
type Tree struct {
	Groups []Group `json:"groups"`
}

type Group struct {
	GroupID     int        `json:"groupID"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Weight      float64    `json:"weight"`
	SubGroups   []SubGroup `json:"subGroups"`
}

type SubGroup struct {
	SubGroupID int        `json:"subGroupID"`
	GroupID    int        `json:"groupID"`
	Name       string     `json:"name"`
	Items      []TreeItem `json:"items"`
}

type TreeItem struct {
	ItemID      int    `json:"itemID"`
	SubGroupID  *int   `json:"subGroupID"`
	GroupID     *int   `json:"groupID"`
	Description string `json:"description"`
}

func (t Tree) SubGroupIDs() map[int]bool {
	ids := map[int]bool{}
	for _, group := range t.Groups {
		for _, sub := range group.SubGroups {
			ids[sub.SubGroupID] = true
		}
	}
	return ids
}

func (t Tree) Validate() error {
	seen := map[int]bool{}
	for _, group := range t.Groups {
		for _, sub := range group.SubGroups {
			if seen[sub.SubGroupID] {
				return fmt.Errorf("%w: duplicate subgroup %d", ErrInvalidRubric, sub.SubGroupID)
			}
			seen[sub.SubGroupID] = true
		}
	}
	return nil
}
