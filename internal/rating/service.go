package rating

import (
	"context"
	"errors"

	"educontrol/internal/model"
)

// ErrUnknownStudent is returned when a score targets an id that is not a student.
var ErrUnknownStudent = errors.New("unknown student")

type StudentSource interface {
	Students(ctx context.Context) ([]model.User, error)
}

type GroupSource interface {
	All(ctx context.Context) ([]model.Group, error)
}

type AttendanceSource interface {
	All(ctx context.Context) ([]model.AttendanceRecord, error)
}

type GradeSource interface {
	All(ctx context.Context) ([]model.GradeRecord, error)
}

type DisciplineSource interface {
	All(ctx context.Context) ([]model.DisciplineRecord, error)
}

type ScoreStore interface {
	All(ctx context.Context) (map[string]model.Score, error)
	Set(ctx context.Context, studentID string, value int) (model.Score, error)
}

// Sources are the collections the engine reads.
type Sources struct {
	Students   StudentSource
	Groups     GroupSource
	Attendance AttendanceSource
	Grades     GradeSource
	Discipline DisciplineSource
	Scores     ScoreStore
}

// Engine recomputes profiles from the stored collections on every call.
type Engine struct {
	src Sources
}

// NewEngine creates an engine over src.
func NewEngine(src Sources) *Engine {
	return &Engine{src: src}
}

// Profiles returns the profile of every student in user insertion order.
func (e *Engine) Profiles(ctx context.Context) ([]StudentProfile, error) {
	students, err := e.src.Students.Students(ctx)
	if err != nil {
		return nil, err
	}
	attendance, err := e.src.Attendance.All(ctx)
	if err != nil {
		return nil, err
	}
	grades, err := e.src.Grades.All(ctx)
	if err != nil {
		return nil, err
	}
	discipline, err := e.src.Discipline.All(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := e.src.Scores.All(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveAll(students, attendance, grades, discipline, scores), nil
}

// Profile returns one student's profile.
func (e *Engine) Profile(ctx context.Context, studentID string) (StudentProfile, error) {
	profiles, err := e.Profiles(ctx)
	if err != nil {
		return StudentProfile{}, err
	}
	for _, p := range profiles {
		if p.User.ID == studentID {
			return p, nil
		}
	}
	return StudentProfile{}, ErrUnknownStudent
}

// Leaderboard returns the filtered profiles ordered by rating.
func (e *Engine) Leaderboard(ctx context.Context, f Filter) ([]StudentProfile, error) {
	profiles, err := e.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := e.src.Groups.All(ctx)
	if err != nil {
		return nil, err
	}
	return Leaderboard(profiles, groups, f), nil
}

// UpdateScore clamps value, stores it for the student and returns the new stored pair
// with the recomputed profile.
func (e *Engine) UpdateScore(ctx context.Context, studentID string, value int) (model.Score, StudentProfile, error) {
	students, err := e.src.Students.Students(ctx)
	if err != nil {
		return model.Score{}, StudentProfile{}, err
	}
	known := false
	for _, s := range students {
		if s.ID == studentID {
			known = true
			break
		}
	}
	if !known {
		return model.Score{}, StudentProfile{}, ErrUnknownStudent
	}

	score, err := e.src.Scores.Set(ctx, studentID, ClampScore(value))
	if err != nil {
		return model.Score{}, StudentProfile{}, err
	}
	p, err := e.Profile(ctx, studentID)
	if err != nil {
		return model.Score{}, StudentProfile{}, err
	}
	return score, p, nil
}

// Overview returns the institution summary and per-group statistics.
func (e *Engine) Overview(ctx context.Context) (CollectiveReport, error) {
	profiles, err := e.Profiles(ctx)
	if err != nil {
		return CollectiveReport{}, err
	}
	groups, err := e.src.Groups.All(ctx)
	if err != nil {
		return CollectiveReport{}, err
	}
	return CollectiveReport{
		CollegeSummary: Summarize(profiles),
		GroupsStats:    GroupStats(groups, profiles),
	}, nil
}
