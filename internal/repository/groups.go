package repository

import (
	"context"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// DefaultGroups is returned while no group collection has been written.
func DefaultGroups() []model.Group {
	return []model.Group{
		{ID: "1", Name: "CS-101", Department: "IT", Course: 1},
		{ID: "2", Name: "ECON-202", Department: "Economics", Course: 2},
		{ID: "3", Name: "IT-303", Department: "IT", Course: 3},
		{ID: "4", Name: "MGMT-404", Department: "Management", Course: 4},
	}
}

// Groups persists study groups. Deleting a group does not touch schedule or users.
type Groups struct {
	*collection[model.Group]
}

func NewGroups(g store.Gateway) *Groups {
	return &Groups{newCollection(g, store.KeyGroups, func(gr model.Group) string { return gr.ID }, DefaultGroups)}
}

// ByName returns the first group with the given name.
func (r *Groups) ByName(ctx context.Context, name string) (model.Group, error) {
	groups, err := r.All(ctx)
	if err != nil {
		return model.Group{}, err
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}
	return model.Group{}, ErrNotFound
}
