package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"educontrol/internal/auth"
	"educontrol/internal/model"
	"educontrol/internal/rating"
)

// accepted answers a job submission. A pending job is polled at /api/ai/jobs/:id.
func accepted(c *gin.Context, job model.Job, created bool) {
	status := http.StatusAccepted
	if job.Done() {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"job": job, "created": created})
}

func (s *Server) chatHistory(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	history, err := s.Repos.AIChat.History(c.Request.Context(), claims.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required,notblank"`
	}
	if !bind(c, &req) {
		return
	}
	claims, _ := auth.FromContext(c)
	job, created, err := s.Assistant.SubmitChat(c.Request.Context(), claims.UserID(), req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	accepted(c, job, created)
}

func (s *Server) clearChat(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	if err := s.Repos.AIChat.Clear(c.Request.Context(), claims.UserID()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// studentReport analyses one student. Students may only ask about themselves.
func (s *Server) studentReport(c *gin.Context) {
	var req struct {
		StudentID string `json:"studentId"`
	}
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	claims, _ := auth.FromContext(c)
	target := req.StudentID
	if target == "" {
		target = claims.UserID()
	}
	if target != claims.UserID() && !claims.Role.Staff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	p, err := s.Ratings.Profile(c.Request.Context(), target)
	if err != nil {
		fail(c, err)
		return
	}
	job, created, err := s.Assistant.SubmitStudentReport(c.Request.Context(), claims.UserID(), target, p.User.FullName, rating.NewStudentReport(p))
	if err != nil {
		fail(c, err)
		return
	}
	accepted(c, job, created)
}

func (s *Server) collectiveReport(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	report, err := s.Ratings.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	job, created, err := s.Assistant.SubmitCollectiveReport(c.Request.Context(), claims.UserID(), report)
	if err != nil {
		fail(c, err)
		return
	}
	accepted(c, job, created)
}

// job lets the owner, or an admin or director, poll a job.
func (s *Server) job(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	job, err := s.Repos.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if job.OwnerID != claims.UserID() && claims.Role != model.RoleAdmin && claims.Role != model.RoleDirector {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) importStore(c *gin.Context) {
	var docs map[string]json.RawMessage
	if !bind(c, &docs) {
		return
	}
	imported, skipped, err := s.Repos.Import(c.Request.Context(), docs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": skipped})
}
