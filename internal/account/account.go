// Package account handles login, registration and the subject catalogue.
package account

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"educontrol/internal/model"
	"educontrol/internal/repository"
)

var (
	ErrUnknownEmail = errors.New("user not found")
	ErrAdminKey     = errors.New("invalid registration key")
	ErrNoGroup      = errors.New("please select a group")
	ErrNoSubjects   = errors.New("please select at least one subject")
	ErrBadCourse    = errors.New("course must be between 1 and 4")
	ErrBadRole      = errors.New("unknown role")
)

// IsValidation reports whether err is a rejected registration.
func IsValidation(err error) bool {
	for _, target := range []error{ErrAdminKey, ErrNoGroup, ErrNoSubjects, ErrBadCourse, ErrBadRole, repository.ErrEmailTaken} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// SystemSubjects are offered to teachers even before anyone teaches them.
var SystemSubjects = []string{
	"Mathematics",
	"Algorithms",
	"History",
	"Physics",
	"Literature",
	"Software Development",
	"Data Science",
	"Network Engineering",
	"Cybersecurity",
	"Management",
	"Economics",
	"Psychology",
	"Foreign Language",
	"Philosophy",
}

type UserStore interface {
	All(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
	TeacherSubjects(ctx context.Context) ([]string, error)
}

type GroupLookup interface {
	ByName(ctx context.Context, name string) (model.Group, error)
}

// Registration is a sign-up request. Group and Course apply to students, Subjects to
// teachers. Admins and directors must present the registration key.
type Registration struct {
	FullName string     `json:"fullName" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Role     model.Role `json:"role" binding:"required"`
	Group    string     `json:"group"`
	Course   int        `json:"course"`
	Subjects []string   `json:"subjects"`
	Key      string     `json:"secretKey"`
}

// Service manages accounts.
type Service struct {
	users    UserStore
	groups   GroupLookup
	adminKey string
	now      func() time.Time
	newID    func() string
}

func NewService(users UserStore, groups GroupLookup, adminKey string) *Service {
	return &Service{users: users, groups: groups, adminKey: adminKey, now: time.Now, newID: uuid.NewString}
}

// Login finds the user by email and records today's visit in the streak.
func (s *Service) Login(ctx context.Context, email string) (model.User, error) {
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUnknownEmail
	}
	if err != nil {
		return model.User{}, err
	}
	return s.visit(ctx, u)
}

// Demo logs in as the demo account of role, creating it on first use.
func (s *Service) Demo(ctx context.Context, role model.Role) (model.User, error) {
	if role != model.RoleStudent && role != model.RoleAdmin {
		return model.User{}, ErrBadRole
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Role() == role && strings.Contains(u.Email, "demo") {
			return s.visit(ctx, u)
		}
	}
	u := model.User{
		ID:           s.newID(),
		Email:        string(role) + "@demo.edu",
		RegisteredAt: s.now().UnixMilli(),
	}
	if role == model.RoleStudent {
		u.FullName = "Demo Student"
		u.Profile = model.Student{Group: "CS-101", Course: 1}
	} else {
		u.FullName = "Demo Admin"
		u.Profile = model.Admin{}
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return s.visit(ctx, u)
}

func (s *Service) visit(ctx context.Context, u model.User) (model.User, error) {
	next := Streak(u, s.now())
	if next.StreakCount == u.StreakCount && next.LastLoginDate == u.LastLoginDate {
		return u, nil
	}
	if err := s.users.Update(ctx, next); err != nil {
		return model.User{}, fmt.Errorf("update streak: %w", err)
	}
	return next, nil
}

// Streak returns u after a visit on today. A visit on the same day changes nothing,
// a visit the day after the last one extends the streak, anything else restarts it.
func Streak(u model.User, today time.Time) model.User {
	// login days are UTC calendar days
	day := today.UTC().Format(time.DateOnly)
	if u.LastLoginDate == day {
		return u
	}
	streak := 1
	if last, err := time.Parse(time.DateOnly, u.LastLoginDate); err == nil {
		cur, _ := time.Parse(time.DateOnly, day)
		if cur.Sub(last) == 24*time.Hour {
			streak = max(u.StreakCount, 1) + 1
		}
	}
	u.StreakCount = streak
	u.LastLoginDate = day
	return u
}

// Register validates the role-specific fields and creates the account.
func (s *Service) Register(ctx context.Context, r Registration) (model.User, error) {
	if !r.Role.Valid() {
		return model.User{}, ErrBadRole
	}
	u := model.User{
		ID:           s.newID(),
		FullName:     strings.TrimSpace(r.FullName),
		Email:        strings.TrimSpace(r.Email),
		RegisteredAt: s.now().UnixMilli(),
	}
	switch r.Role {
	case model.RoleAdmin, model.RoleDirector:
		if s.adminKey == "" || r.Key != s.adminKey {
			return model.User{}, ErrAdminKey
		}
		u.Profile = model.ProfileFor(r.Role)
	case model.RoleStudent:
		p, err := s.studentProfile(ctx, r)
		if err != nil {
			return model.User{}, err
		}
		u.Profile = p
	case model.RoleTeacher:
		subjects := dedupe(r.Subjects)
		if len(subjects) == 0 {
			return model.User{}, ErrNoSubjects
		}
		u.Profile = model.Teacher{Subjects: subjects}
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return s.visit(ctx, u)
}

func (s *Service) studentProfile(ctx context.Context, r Registration) (model.Student, error) {
	name := strings.TrimSpace(r.Group)
	if name == "" {
		return model.Student{}, ErrNoGroup
	}
	g, err := s.groups.ByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Student{}, ErrNoGroup
	}
	if err != nil {
		return model.Student{}, err
	}
	course := r.Course
	if course == 0 {
		course = g.Course
	}
	if course < 1 || course > 4 {
		return model.Student{}, ErrBadCourse
	}
	return model.Student{Group: g.Name, Course: course}, nil
}

// Subjects returns the system subjects and every subject a teacher listed, sorted.
func (s *Service) Subjects(ctx context.Context) ([]string, error) {
	taught, err := s.users.TeacherSubjects(ctx)
	if err != nil {
		return nil, err
	}
	out := dedupe(append(append([]string{}, SystemSubjects...), taught...))
	sort.Strings(out)
	return out, nil
}

// User returns the account with the given id.
func (s *Service) User(ctx context.Context, id string) (model.User, error) {
	return s.users.Get(ctx, id)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
