package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"educontrol/internal/model"
)

func marks(statuses ...model.Status) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, model.AttendanceRecord{StudentID: "s", Status: s})
	}
	return out
}

func TestAttendanceRateWithoutRecordsIs100(t *testing.T) {
	assert.Equal(t, 100, AttendanceRate(nil))
	assert.Equal(t, 100, AttendanceRate([]model.AttendanceRecord{}))
}

func TestAttendanceRate(t *testing.T) {
	tests := []struct {
		name string
		in   []model.AttendanceRecord
		want int
	}{
		{"all present", marks(model.StatusPresent, model.StatusPresent), 100},
		{"all absent", marks(model.StatusAbsent, model.StatusAbsent), 0},
		{"late is half", marks(model.StatusLate), 50},
		{"mixed rounds", marks(model.StatusPresent, model.StatusLate, model.StatusAbsent), 50},
		{"thirds", marks(model.StatusPresent, model.StatusPresent, model.StatusAbsent), 67},
		{"half up", marks(model.StatusLate, model.StatusLate, model.StatusLate, model.StatusAbsent, model.StatusAbsent, model.StatusAbsent, model.StatusAbsent, model.StatusAbsent), 19},
		{"missing status counts as absent", marks(model.StatusPresent, ""), 50},
		{"unknown status counts as absent", marks(model.StatusPresent, "excused"), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttendanceRate(tt.in))
		})
	}
}

func TestAttendanceRateIsMonotonic(t *testing.T) {
	base := []model.Status{model.StatusAbsent, model.StatusLate, model.StatusPresent, model.StatusAbsent, model.StatusLate}
	upgrade := map[model.Status]model.Status{
		model.StatusAbsent: model.StatusLate,
		model.StatusLate:   model.StatusPresent,
	}
	for i, s := range base {
		next, ok := upgrade[s]
		if !ok {
			continue
		}
		changed := append([]model.Status(nil), base...)
		changed[i] = next
		assert.GreaterOrEqual(t, AttendanceRate(marks(changed...)), AttendanceRate(marks(base...)), "index %d: %s -> %s", i, s, next)
	}
}

func TestComposite(t *testing.T) {
	assert.Equal(t, 100, Composite(100, 100))
	assert.Equal(t, 0, Composite(0, 0))
	assert.Equal(t, 20, Composite(0, 100))
	assert.Equal(t, 80, Composite(100, 0))
	assert.Equal(t, 87, Composite(87, 87))
	assert.Equal(t, 73, Composite(70, 83)) // 56 + 16.6
}

func TestGradeBoundaries(t *testing.T) {
	tests := map[int]int{
		100: 5, 87: 5, 86: 4, 74: 4, 73: 3, 60: 3, 59: 2, 40: 2, 39: 1, 0: 1,
	}
	for rating, want := range tests {
		assert.Equal(t, want, Grade(rating), "rating %d", rating)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 100, ClampScore(150))
	assert.Equal(t, 0, ClampScore(-10))
	assert.Equal(t, 55, ClampScore(55))
}

func TestParseBucket(t *testing.T) {
	b, err := ParseBucket("")
	assert.NoError(t, err)
	assert.Equal(t, BucketAll, b)

	b, err = ParseBucket("low")
	assert.NoError(t, err)
	assert.Equal(t, BucketLow, b)

	_, err = ParseBucket("medium")
	assert.Error(t, err)
}
