package evaluation

const (
	SectionTeaching   = "teachingQualifications"
	SectionAuthority  = "classAuthority"
	SectionPunctual   = "punctuality"
	SectionOther      = "otherQualifications"
	SectionSEP        = "sep"
	ItemDaysAbsent    = "daysAbsent"
	ItemSEP           = "sep"
	StatusCompleted   = "completed"
	DefaultPageSize   = 10
	weightTolerance   = 1e-9
	maxRating         = 5
	minRating         = 1
	attendanceCeiling = 10
)

type Variant string

const (
	VariantFixed Variant = "fixed"
	VariantTree  Variant = "tree"
)

// Strategy selects how the days-absent count enters the punctuality section.
type Strategy string

const (
	// StrategyAttendanceFolded averages the derived attendance rating with tardiness and absences.
	StrategyAttendanceFolded Strategy = "attendance_folded"
	// StrategyAttendanceDisplayOnly averages tardiness and absences only.
	StrategyAttendanceDisplayOnly Strategy = "attendance_display_only"
)

func ParseStrategy(value string) (Strategy, bool) {
	switch Strategy(value) {
	case StrategyAttendanceFolded, StrategyAttendanceDisplayOnly:
		return Strategy(value), true
	case "":
		return StrategyAttendanceFolded, true
	}
	return "", false
}

func ParseVariant(value string) (Variant, bool) {
	switch Variant(value) {
	case VariantFixed, VariantTree:
		return Variant(value), true
	case "":
		return VariantFixed, true
	}
	return "", false
}
