package repository

import (
	"context"
	"errors"
	"strings"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

var (
	// ErrInvalid marks input rejected before any write.
	ErrInvalid = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// Users persists accounts of every role.
type Users struct {
	*collection[model.User]
}

func NewUsers(g store.Gateway) *Users {
	return &Users{newCollection(g, store.KeyUsers, func(u model.User) string { return u.ID }, nil)}
}

// Create adds u unless its email is already in use.
func (r *Users) Create(ctx context.Context, u model.User) error {
	return r.mutate(ctx, func(users []model.User) ([]model.User, error) {
		for _, existing := range users {
			if strings.EqualFold(existing.Email, u.Email) {
				return nil, ErrEmailTaken
			}
		}
		return append(users, u), nil
	})
}

// ByEmail returns the user with the given email (case-insensitive).
func (r *Users) ByEmail(ctx context.Context, email string) (model.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// Students returns every student in insertion order.
func (r *Users) Students(ctx context.Context) ([]model.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Role() == model.RoleStudent {
			out = append(out, u)
		}
	}
	return out, nil
}

// StudentsOf returns the students of the named group.
func (r *Users) StudentsOf(ctx context.Context, group string) ([]model.User, error) {
	students, err := r.Students(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0)
	for _, u := range students {
		if u.InGroup(group) {
			out = append(out, u)
		}
	}
	return out, nil
}

// TeacherSubjects returns every subject listed on any teacher, in user order.
func (r *Users) TeacherSubjects(ctx context.Context) ([]string, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, u := range users {
		if t, ok := u.TeacherInfo(); ok {
			out = append(out, t.Subjects...)
		}
	}
	return out, nil
}
