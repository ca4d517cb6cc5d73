package model

import (
	"encoding/json"
)

// Role identifies what a user is allowed to do.
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleAdmin    Role = "admin"
	RoleDirector Role = "director"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleDirector:
		return true
	default:
		return false
	}
}

// Staff reports whether the role may edit scores and mark attendance.
func (r Role) Staff() bool {
	return r == RoleTeacher || r == RoleAdmin || r == RoleDirector
}

// Profile is the role-specific part of a user.
type Profile interface {
	Role() Role
}

// Student holds the fields that only exist for students.
type Student struct {
	Group  string
	Course int // 0 when unknown
}

func (Student) Role() Role { return RoleStudent }

// Teacher holds the fields that only exist for teachers.
type Teacher struct {
	Subjects []string
}

func (Teacher) Role() Role { return RoleTeacher }

type Admin struct{}

func (Admin) Role() Role { return RoleAdmin }

type Director struct{}

func (Director) Role() Role { return RoleDirector }

// ProfileFor returns the empty variant for a role, or nil for an unknown role.
func ProfileFor(r Role) Profile {
	switch r {
	case RoleStudent:
		return Student{}
	case RoleTeacher:
		return Teacher{}
	case RoleAdmin:
		return Admin{}
	case RoleDirector:
		return Director{}
	}
	return nil
}

// User is an account of any role. Profile carries the role-specific data.
type User struct {
	ID            string
	FullName      string
	Email         string
	Avatar        string
	RegisteredAt  int64 // unix millis
	StreakCount   int
	LastLoginDate string // YYYY-MM-DD
	Profile       Profile
}

// Role returns the role of the user's profile, or "" when it has none.
func (u User) Role() Role {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role()
}

// StudentInfo returns the student variant when the user is a student.
func (u User) StudentInfo() (Student, bool) {
	s, ok := u.Profile.(Student)
	return s, ok
}

// TeacherInfo returns the teacher variant when the user is a teacher.
func (u User) TeacherInfo() (Teacher, bool) {
	t, ok := u.Profile.(Teacher)
	return t, ok
}

// InGroup reports whether u is a student of the named group.
func (u User) InGroup(group string) bool {
	s, ok := u.StudentInfo()
	return ok && s.Group == group
}

// userJSON is the flat stored shape of a user.
type userJSON struct {
	ID            string   `json:"id"`
	FullName      string   `json:"fullName"`
	Email         string   `json:"email"`
	Role          Role     `json:"role"`
	Group         string   `json:"group,omitempty"`
	Course        int      `json:"course,omitempty"`
	Subjects      []string `json:"subjects,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	RegisteredAt  int64    `json:"registeredAt"`
	StreakCount   int      `json:"streakCount,omitempty"`
	LastLoginDate string   `json:"lastLoginDate,omitempty"`
}

// MarshalJSON writes the flat record, emitting role fields only for the matching role.
func (u User) MarshalJSON() ([]byte, error) {
	out := userJSON{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		Role:          u.Role(),
		Avatar:        u.Avatar,
		RegisteredAt:  u.RegisteredAt,
		StreakCount:   u.StreakCount,
		LastLoginDate: u.LastLoginDate,
	}
	switch p := u.Profile.(type) {
	case Student:
		out.Group = p.Group
		out.Course = p.Course
	case Teacher:
		out.Subjects = p.Subjects
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat record and builds the variant from the role.
// Role fields stored on a user of a different role are dropped.
func (u *User) UnmarshalJSON(data []byte) error {
	var in userJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*u = User{
		ID:            in.ID,
		FullName:      in.FullName,
		Email:         in.Email,
		Avatar:        in.Avatar,
		RegisteredAt:  in.RegisteredAt,
		StreakCount:   in.StreakCount,
		LastLoginDate: in.LastLoginDate,
	}
	switch in.Role {
	case RoleStudent:
		u.Profile = Student{Group: in.Group, Course: in.Course}
	case RoleTeacher:
		u.Profile = Teacher{Subjects: in.Subjects}
	case RoleAdmin:
		u.Profile = Admin{}
	case RoleDirector:
		u.Profile = Director{}
	}
	return nil
}

// Group is a study group.
type Group struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Course     int    `json:"course"`
}

// ScheduleEntry is one weekly lesson slot. Day is 0=Monday..5=Saturday.
type ScheduleEntry struct {
	ID      string `json:"id"`
	Group   string `json:"group"`
	Subject string `json:"subject"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
	Day     int    `json:"day"`
	Time    string `json:"time"`
}

// Status is the attendance mark of a student for one lesson.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a stored mark. At most one exists per (StudentID, Date, Subject).
type AttendanceRecord struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	Date      string `json:"date"`
	Status    Status `json:"status"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher,omitempty"`
	Time      string `json:"time,omitempty"`
}

// SameSlot reports whether both records cover the same student, date and subject.
func (r AttendanceRecord) SameSlot(o AttendanceRecord) bool {
	return r.StudentID == o.StudentID && r.Date == o.Date && r.Subject == o.Subject
}

type GradeRecord struct {
	ID        string  `json:"id"`
	StudentID string  `json:"studentId"`
	Subject   string  `json:"subject"`
	Value     float64 `json:"value"`
	Date      string  `json:"date"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type DisciplineRecord struct {
	ID        string   `json:"id"`
	StudentID string   `json:"studentId"`
	TeacherID string   `json:"teacherId"`
	Remark    string   `json:"remark"`
	Severity  Severity `json:"severity"`
	Date      string   `json:"date"`
}

// Score is the stored academic score of a student with one level of history.
type Score struct {
	Current  int `json:"current"`
	Previous int `json:"previous"`
}

type LibraryBook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type NewsItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Date       int64  `json:"date"`
	AuthorName string `json:"authorName"`
}

// ChatMessage is a direct message between two users.
type ChatMessage struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}

// Turn is one message of an AI chat conversation. Role is "user" or "model".
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// JobState is the lifecycle state of an AI job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Job is an asynchronous AI request and its outcome.
type Job struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Key        string          `json:"key"`
	OwnerID    string          `json:"ownerId"`
	Input      json.RawMessage `json:"input,omitempty"`
	State      JobState        `json:"state"`
	Result     string          `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
	FinishedAt int64           `json:"finishedAt,omitempty"`
}

// Done reports whether the job reached a final state.
func (j Job) Done() bool {
	return j.State == JobSucceeded || j.State == JobFailed
}
