package evaluation

import "fmt"

// Rating is a single 1-5 answer on the rubric scale. Zero means "not rated".
type Rating int

type ScaleChoice struct {
	Value Rating `json:"value"`
	Label string `json:"label"`
}

var ratingLabels = map[Rating]string{
	1: "Poor",
	2: "Fair",
	3: "Satisfactory",
	4: "Very Satisfactory",
	5: "Excellent",
}

func (r Rating) Valid() bool {
	return r >= minRating && r <= maxRating
}

func (r Rating) Label() string {
	return ratingLabels[r]
}

func (r Rating) String() string {
	if !r.Valid() {
		return "unrated"
	}
	return fmt.Sprintf("%d - %s", int(r), r.Label())
}

// Scale lists the rating choices in ascending order.
func Scale() []ScaleChoice {
	out := make([]ScaleChoice, 0, maxRating)
	for r := Rating(minRating); r <= maxRating; r++ {
		out = append(out, ScaleChoice{Value: r, Label: r.Label()})
	}
	return out
}

func checkRating(r Rating) error {
	if !r.Valid() {
		return fmt.Errorf("%w: got %d", ErrRatingOutOfRange, int(r))
	}
	return nil
}
