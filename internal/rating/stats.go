package rating

import (
	"math"

	"educontrol/internal/model"
)

// GroupStat summarises one group for dashboards and the collective report.
type GroupStat struct {
	Name       string `json:"name"`
	Students   int    `json:"students"`
	Rating     int    `json:"rating"`
	Attendance int    `json:"attendance"`
}

// Summary describes the whole institution.
type Summary struct {
	TotalStudents int `json:"totalStudents"`
	AverageRating int `json:"averageRating"`
}

// GroupStats computes per-group averages in group order. A group without students has
// rating 0; a group without records has attendance DefaultRate.
func GroupStats(groups []model.Group, profiles []StudentProfile) []GroupStat {
	out := make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		var (
			n       int
			sum     int
			records []model.AttendanceRecord
		)
		for _, p := range profiles {
			if p.Group() != g.Name {
				continue
			}
			n++
			sum += p.Rating
			records = append(records, p.Attendance...)
		}
		st := GroupStat{Name: g.Name, Students: n, Attendance: AttendanceRate(records)}
		if n > 0 {
			st.Rating = int(math.Round(float64(sum) / float64(n)))
		}
		out = append(out, st)
	}
	return out
}

// Summarize returns the student count and the rounded mean rating.
func Summarize(profiles []StudentProfile) Summary {
	s := Summary{TotalStudents: len(profiles)}
	if len(profiles) == 0 {
		return s
	}
	sum := 0
	for _, p := range profiles {
		sum += p.Rating
	}
	s.AverageRating = int(math.Round(float64(sum) / float64(len(profiles))))
	return s
}

// StudentReport is the data sent to the assistant for a personal report.
type StudentReport struct {
	Grades     []float64 `json:"grades"`
	Attendance int       `json:"attendance"`
	Rating     int       `json:"rating"`
}

// NewStudentReport extracts the report payload from a profile.
func NewStudentReport(p StudentProfile) StudentReport {
	grades := make([]float64, 0, len(p.Grades))
	for _, g := range p.Grades {
		grades = append(grades, g.Value)
	}
	return StudentReport{Grades: grades, Attendance: len(p.Attendance), Rating: p.Rating}
}

// CollectiveReport is the data sent to the assistant for the administration report.
type CollectiveReport struct {
	CollegeSummary Summary     `json:"collegeSummary"`
	GroupsStats    []GroupStat `json:"groupsStats"`
}
