package evaluation

// attendanceSteps maps 0..10 days absent to the derived punctuality rating.
var attendanceSteps = [attendanceCeiling + 1]float64{5.0, 4.5, 4.0, 3.5, 3.0, 2.5, 2.4, 2.3, 2.2, 2.1, 2.0}

// AttendanceRating converts a school-year absence count into a 1.0-5.0 rating.
func AttendanceRating(daysAbsent int) float64 {
	if daysAbsent < 0 {
		daysAbsent = 0
	}
	if daysAbsent > attendanceCeiling {
		return 1.0
	}
	return attendanceSteps[daysAbsent]
}

type AttendanceStep struct {
	DaysAbsent int     `json:"daysAbsent"`
	Rating     float64 `json:"rating"`
	AndAbove   bool    `json:"andAbove,omitempty"`
}

// AttendanceTable lists the step function for display next to the days-absent input.
func AttendanceTable() []AttendanceStep {
	out := make([]AttendanceStep, 0, len(attendanceSteps)+1)
	for days, rating := range attendanceSteps {
		out = append(out, AttendanceStep{DaysAbsent: days, Rating: rating})
	}
	return append(out, AttendanceStep{DaysAbsent: attendanceCeiling + 1, Rating: 1.0, AndAbove: true})
}
