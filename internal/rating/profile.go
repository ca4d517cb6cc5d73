package rating

import "educontrol/internal/model"

// StudentProfile is a student joined with everything recorded about them.
type StudentProfile struct {
	User           model.User               `json:"user"`
	Attendance     []model.AttendanceRecord `json:"attendance"`
	Grades         []model.GradeRecord      `json:"grades"`
	Discipline     []model.DisciplineRecord `json:"discipline"`
	AcademicScore  int                      `json:"academicScore"`
	AttendanceRate int                      `json:"attendanceRate"`
	Rating         int                      `json:"rating"`
	Grade          int                      `json:"grade"`
}

// Group returns the student's group name.
func (p StudentProfile) Group() string {
	s, _ := p.User.StudentInfo()
	return s.Group
}

// DeriveProfile computes the profile of one student. The record slices must already be
// restricted to that student.
func DeriveProfile(
	u model.User,
	attendance []model.AttendanceRecord,
	grades []model.GradeRecord,
	discipline []model.DisciplineRecord,
	academicScore int,
) StudentProfile {
	if attendance == nil {
		attendance = []model.AttendanceRecord{}
	}
	if grades == nil {
		grades = []model.GradeRecord{}
	}
	if discipline == nil {
		discipline = []model.DisciplineRecord{}
	}
	rate := AttendanceRate(attendance)
	r := Composite(academicScore, rate)
	return StudentProfile{
		User:           u,
		Attendance:     attendance,
		Grades:         grades,
		Discipline:     discipline,
		AcademicScore:  academicScore,
		AttendanceRate: rate,
		Rating:         r,
		Grade:          Grade(r),
	}
}

// DeriveAll builds profiles for students in order, grouping records by student id.
func DeriveAll(
	students []model.User,
	attendance []model.AttendanceRecord,
	grades []model.GradeRecord,
	discipline []model.DisciplineRecord,
	scores map[string]model.Score,
) []StudentProfile {
	byAtt := make(map[string][]model.AttendanceRecord)
	for _, a := range attendance {
		byAtt[a.StudentID] = append(byAtt[a.StudentID], a)
	}
	byGrade := make(map[string][]model.GradeRecord)
	for _, g := range grades {
		byGrade[g.StudentID] = append(byGrade[g.StudentID], g)
	}
	byDisc := make(map[string][]model.DisciplineRecord)
	for _, d := range discipline {
		byDisc[d.StudentID] = append(byDisc[d.StudentID], d)
	}

	out := make([]StudentProfile, 0, len(students))
	for _, u := range students {
		if u.Role() != model.RoleStudent {
			continue
		}
		out = append(out, DeriveProfile(u, byAtt[u.ID], byGrade[u.ID], byDisc[u.ID], scores[u.ID].Current))
	}
	return out
}
