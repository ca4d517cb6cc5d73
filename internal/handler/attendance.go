package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"educontrol/internal/attendance"
	"educontrol/internal/metrics"
	"educontrol/internal/model"
	"educontrol/internal/rating"
)

type sessionQuery struct {
	Group  string `form:"group" binding:"required"`
	Date   string `form:"date" binding:"required,isodate"`
	Lesson string `form:"lesson"`
}

func (s *Server) openSession(c *gin.Context) {
	var q sessionQuery
	if !bindQuery(c, &q) {
		return
	}
	sess, err := s.Attendance.Open(c.Request.Context(), q.Group, q.Date, q.Lesson)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "canMark": sess.CanMark()})
}

func (s *Server) saveSession(c *gin.Context) {
	var req struct {
		Group    string                  `json:"group" binding:"required"`
		Date     string                  `json:"date" binding:"required,isodate"`
		LessonID string                  `json:"lessonId"`
		Marks    map[string]model.Status `json:"marks" binding:"omitempty,dive,status"`
	}
	if !bind(c, &req) {
		return
	}
	records, err := s.Attendance.Save(c.Request.Context(), attendance.SaveRequest{
		Group:    req.Group,
		Date:     req.Date,
		LessonID: req.LessonID,
		Marks:    req.Marks,
	})
	if err != nil {
		fail(c, err)
		return
	}
	for _, r := range records {
		metrics.AttendanceRecords.WithLabelValues(string(r.Status)).Inc()
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(records), "records": records})
}

// myAttendance returns the caller's records with the rate they produce.
func (s *Server) myAttendance(c *gin.Context) {
	u, ok := s.caller(c)
	if !ok {
		return
	}
	records, err := s.Repos.Attendance.ForStudent(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "rate": rating.AttendanceRate(records)})
}
