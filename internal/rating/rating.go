// Package rating derives student ratings from attendance and academic scores.
//
// Everything here is recomputed on read; nothing derived is stored.
package rating

import (
	"math"

	"educontrol/internal/model"
)

const (
	// AcademicWeight and AttendanceWeight split the composite rating.
	AcademicWeight   = 0.8
	AttendanceWeight = 0.2

	// DefaultRate is the attendance rate of a student with no records.
	DefaultRate = 100

	MinScore = 0
	MaxScore = 100
)

// Credit is the attendance credit of a single mark. Unknown or missing statuses
// earn nothing, the same as an absence.
func Credit(s model.Status) float64 {
	switch s {
	case model.StatusPresent:
		return 1
	case model.StatusLate:
		return 0.5
	default:
		return 0
	}
}

// AttendanceRate returns the rounded percentage of credit earned over all records.
func AttendanceRate(records []model.AttendanceRecord) int {
	if len(records) == 0 {
		return DefaultRate
	}
	var points float64
	for _, r := range records {
		points += Credit(r.Status)
	}
	return int(math.Round(points / float64(len(records)) * 100))
}

// Composite blends the academic score and attendance rate into a 0..100 rating.
func Composite(academicScore, attendanceRate int) int {
	return int(math.Round(float64(academicScore)*AcademicWeight + float64(attendanceRate)*AttendanceWeight))
}

// Grade maps a rating to the 1..5 scale.
func Grade(rating int) int {
	switch {
	case rating >= 87:
		return 5
	case rating >= 74:
		return 4
	case rating >= 60:
		return 3
	case rating >= 40:
		return 2
	default:
		return 1
	}
}

// ClampScore limits an academic score to [MinScore, MaxScore].
func ClampScore(v int) int {
	if v > MaxScore {
		return MaxScore
	}
	if v < MinScore {
		return MinScore
	}
	return v
}
