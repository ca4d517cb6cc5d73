package repository

import (
	"context"

	"educontrol/internal/model"
	"educontrol/internal/store"
)

// Attendance persists marks, keeping one record per (student, date, subject).
type Attendance struct {
	*collection[model.AttendanceRecord]
}

func NewAttendance(g store.Gateway) *Attendance {
	return &Attendance{newCollection(g, store.KeyAttendance, func(r model.AttendanceRecord) string { return r.ID }, nil)}
}

// Save upserts a batch: stored records sharing a slot with any new record are dropped
// and the batch is appended.
func (r *Attendance) Save(ctx context.Context, records []model.AttendanceRecord) error {
	return r.mutate(ctx, func(all []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
		kept := make([]model.AttendanceRecord, 0, len(all)+len(records))
		for _, old := range all {
			replaced := false
			for _, nr := range records {
				if nr.SameSlot(old) {
					replaced = true
					break
				}
			}
			if !replaced {
				kept = append(kept, old)
			}
		}
		return append(kept, records...), nil
	})
}

// ForStudent returns the records of one student in stored order.
func (r *Attendance) ForStudent(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AttendanceRecord, 0)
	for _, rec := range all {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}
