package attendance

import (
	"sort"
	"time"

	"educontrol/internal/model"
)

// DateLayout is the calendar date format used by attendance records.
const DateLayout = "2006-01-02"

// Saturday is the last schedule slot. Sunday has no slot of its own.
const Saturday = 5

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Weekday maps a date to the schedule's 0=Monday..5=Saturday index.
// Sunday resolves to Saturday's slot.
func Weekday(d time.Time) int {
	raw := int(d.Weekday())
	if raw == 0 {
		return Saturday
	}
	return raw - 1
}

// Lessons returns the entries for group on the mapped weekday, in schedule order.
func Lessons(schedule []model.ScheduleEntry, group string, day int) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0)
	for _, e := range schedule {
		if e.Group == group && e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// SelectLesson picks the lesson with the given id, or the first lesson when id is empty.
func SelectLesson(lessons []model.ScheduleEntry, id string) (model.ScheduleEntry, bool) {
	if len(lessons) == 0 {
		return model.ScheduleEntry{}, false
	}
	if id == "" {
		return lessons[0], true
	}
	for _, l := range lessons {
		if l.ID == id {
			return l, true
		}
	}
	return model.ScheduleEntry{}, false
}

// Stored returns the persisted marks of roster students for date and subject.
func Stored(records []model.AttendanceRecord, date, subject string, roster []model.User) map[string]model.Status {
	members := make(map[string]struct{}, len(roster))
	for _, u := range roster {
		members[u.ID] = struct{}{}
	}
	out := make(map[string]model.Status)
	for _, r := range records {
		if r.Date != date || r.Subject != subject {
			continue
		}
		if _, ok := members[r.StudentID]; !ok {
			continue
		}
		if r.Status.Valid() {
			out[r.StudentID] = r.Status
		} else {
			// missing or unknown status counts as absent
			out[r.StudentID] = model.StatusAbsent
		}
	}
	return out
}

// BuildRecords creates one record per roster student for the lesson. Students without a
// mark are recorded present.
func BuildRecords(roster []model.User, date string, lesson model.ScheduleEntry, marks map[string]model.Status, newID func() string) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(roster))
	for _, u := range roster {
		status, ok := marks[u.ID]
		if !ok || status == "" {
			status = model.StatusPresent
		}
		out = append(out, model.AttendanceRecord{
			ID:        newID(),
			StudentID: u.ID,
			Date:      date,
			Status:    status,
			Subject:   lesson.Subject,
			Teacher:   lesson.Teacher,
			Time:      lesson.Time,
		})
	}
	return out
}

// DayOfWeek maps a date for the "today" view, where Sunday is a day off (index 6) and
// therefore has no lessons.
func DayOfWeek(d time.Time) int {
	raw := int(d.Weekday())
	if raw == 0 {
		return 6
	}
	return raw - 1
}

// SortByTime orders lessons by their zero-padded time range.
func SortByTime(lessons []model.ScheduleEntry) {
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Time < lessons[j].Time })
}
