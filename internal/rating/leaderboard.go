package rating

import (
	"fmt"
	"sort"

	"educontrol/internal/model"
)

// Bucket selects students by attendance rate.
type Bucket string

const (
	BucketAll  Bucket = "all"
	BucketHigh Bucket = "high" // rate >= 80
	BucketLow  Bucket = "low"  // rate < 50
)

// ParseBucket accepts "", "all", "high" and "low".
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case "", BucketAll:
		return BucketAll, nil
	case BucketHigh, BucketLow:
		return Bucket(s), nil
	}
	return "", fmt.Errorf("unknown attendance bucket %q", s)
}

func (b Bucket) match(rate int) bool {
	switch b {
	case BucketHigh:
		return rate >= 80
	case BucketLow:
		return rate < 50
	default:
		return true
	}
}

// Filter narrows a leaderboard. Zero values match everything.
type Filter struct {
	Course int
	Group  string
	Bucket Bucket
}

// CourseOf returns the student's own course, falling back to the course of the group
// with the student's group name. Zero means unknown.
func CourseOf(u model.User, groups []model.Group) int {
	s, ok := u.StudentInfo()
	if !ok {
		return 0
	}
	if s.Course != 0 {
		return s.Course
	}
	for _, g := range groups {
		if g.Name == s.Group {
			return g.Course
		}
	}
	return 0
}

// Match reports whether p satisfies every set predicate of f.
func (f Filter) Match(p StudentProfile, groups []model.Group) bool {
	if f.Course != 0 && CourseOf(p.User, groups) != f.Course {
		return false
	}
	if f.Group != "" && f.Group != "all" && p.Group() != f.Group {
		return false
	}
	return f.Bucket.match(p.AttendanceRate)
}

// Leaderboard returns the matching profiles sorted by rating, highest first.
// Equal ratings keep their input order.
func Leaderboard(profiles []StudentProfile, groups []model.Group, f Filter) []StudentProfile {
	out := make([]StudentProfile, 0, len(profiles))
	for _, p := range profiles {
		if f.Match(p, groups) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}
