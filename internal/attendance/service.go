package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"educontrol/internal/model"
)

var (
	ErrNoGroup       = errors.New("select a group")
	ErrNoLesson      = errors.New("no lesson selected for this group and date")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidStatus = errors.New("status must be present, absent or late")
)

// IsValidation reports whether err is a rejection of the caller's input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoGroup) || errors.Is(err, ErrNoLesson) ||
		errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidStatus)
}

type ScheduleSource interface {
	All(ctx context.Context) ([]model.ScheduleEntry, error)
}

type RosterSource interface {
	StudentsOf(ctx context.Context, group string) ([]model.User, error)
}

type RecordStore interface {
	All(ctx context.Context) ([]model.AttendanceRecord, error)
	Save(ctx context.Context, records []model.AttendanceRecord) error
}

// Mark is the status shown for one roster student. Recorded is false when the status
// is the unsaved default.
type Mark struct {
	StudentID string       `json:"studentId"`
	FullName  string       `json:"fullName"`
	Status    model.Status `json:"status"`
	Recorded  bool         `json:"recorded"`
}

// Session is the resolved marking context for a group on a date.
type Session struct {
	Group   string                `json:"group"`
	Date    string                `json:"date"`
	Weekday int                   `json:"weekday"`
	Lessons []model.ScheduleEntry `json:"lessons"`
	Active  *model.ScheduleEntry  `json:"active"`
	Marks   []Mark                `json:"marks"`
}

// CanMark reports whether a lesson is active.
func (s Session) CanMark() bool { return s.Active != nil }

// SaveRequest carries the marks for one lesson. Students absent from Marks are present.
type SaveRequest struct {
	Group    string
	Date     string
	LessonID string
	Marks    map[string]model.Status
}

// Service resolves sessions and records attendance batches.
type Service struct {
	schedule ScheduleSource
	roster   RosterSource
	records  RecordStore
	newID    func() string
}

// NewService creates a service backed by the given collections.
func NewService(schedule ScheduleSource, roster RosterSource, records RecordStore) *Service {
	return &Service{schedule: schedule, roster: roster, records: records, newID: uuid.NewString}
}

type resolved struct {
	day     int
	lessons []model.ScheduleEntry
	active  *model.ScheduleEntry
	roster  []model.User
}

func (s *Service) resolve(ctx context.Context, group, date, lessonID string) (resolved, error) {
	if group == "" {
		return resolved{}, ErrNoGroup
	}
	d, err := ParseDate(date)
	if err != nil {
		return resolved{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	schedule, err := s.schedule.All(ctx)
	if err != nil {
		return resolved{}, err
	}
	roster, err := s.roster.StudentsOf(ctx, group)
	if err != nil {
		return resolved{}, err
	}
	res := resolved{day: Weekday(d), roster: roster}
	res.lessons = Lessons(schedule, group, res.day)
	if l, ok := SelectLesson(res.lessons, lessonID); ok {
		res.active = &l
	}
	return res, nil
}

// Open resolves the session for group on date. lessonID selects the active lesson;
// empty selects the first. A session without lessons has no active lesson.
func (s *Service) Open(ctx context.Context, group, date, lessonID string) (Session, error) {
	res, err := s.resolve(ctx, group, date, lessonID)
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		Group:   group,
		Date:    date,
		Weekday: res.day,
		Lessons: res.lessons,
		Active:  res.active,
		Marks:   make([]Mark, 0, len(res.roster)),
	}
	stored := map[string]model.Status{}
	if res.active != nil {
		records, err := s.records.All(ctx)
		if err != nil {
			return Session{}, err
		}
		stored = Stored(records, date, res.active.Subject, res.roster)
	}
	for _, u := range res.roster {
		m := Mark{StudentID: u.ID, FullName: u.FullName, Status: model.StatusPresent}
		if st, ok := stored[u.ID]; ok {
			m.Status = st
			m.Recorded = true
		}
		sess.Marks = append(sess.Marks, m)
	}
	return sess, nil
}

// Save records the whole roster for the active lesson, replacing earlier marks for the
// same student, date and subject.
func (s *Service) Save(ctx context.Context, req SaveRequest) ([]model.AttendanceRecord, error) {
	for _, st := range req.Marks {
		if st != "" && !st.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
		}
	}
	res, err := s.resolve(ctx, req.Group, req.Date, req.LessonID)
	if err != nil {
		return nil, err
	}
	if res.active == nil {
		return nil, ErrNoLesson
	}
	records := BuildRecords(res.roster, req.Date, *res.active, req.Marks, s.newID)
	if len(records) == 0 {
		return records, nil
	}
	if err := s.records.Save(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Today returns the group's lessons for now's weekday ordered by time.
func (s *Service) Today(ctx context.Context, group string, now time.Time) ([]model.ScheduleEntry, error) {
	schedule, err := s.schedule.All(ctx)
	if err != nil {
		return nil, err
	}
	lessons := Lessons(schedule, group, DayOfWeek(now))
	SortByTime(lessons)
	return lessons, nil
}
