package repository

import (
	"educontrol/internal/model"
	"educontrol/internal/store"
)

// DefaultSchedule is returned while no schedule collection has been written.
func DefaultSchedule() []model.ScheduleEntry {
	return []model.ScheduleEntry{
		{ID: "1", Group: "CS-101", Subject: "Mathematics", Teacher: "Sultanov A.", Room: "304", Day: 0, Time: "08:30 - 10:00"},
	}
}

// Schedule persists weekly lesson slots in insertion order.
type Schedule struct {
	*collection[model.ScheduleEntry]
}

func NewSchedule(g store.Gateway) *Schedule {
	return &Schedule{newCollection(g, store.KeySchedule, func(e model.ScheduleEntry) string { return e.ID }, DefaultSchedule)}
}
