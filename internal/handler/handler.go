// Package handler exposes the HTTP API used by the single page client.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"educontrol/internal/account"
	"educontrol/internal/assistant"
	"educontrol/internal/attendance"
	"educontrol/internal/auth"
	"educontrol/internal/cloudinary"
	"educontrol/internal/model"
	"educontrol/internal/rating"
	"educontrol/internal/repository"
	"educontrol/internal/store"
)

// Deps are the services the API is built from.
type Deps struct {
	Gateway    store.Gateway
	Repos      *repository.Repositories
	Accounts   *account.Service
	Attendance *attendance.Service
	Ratings    *rating.Engine
	Assistant  *assistant.Runner
	Signer     *auth.Signer
	Avatars    AvatarUploader
}

// AvatarUploader stores an image and returns where it is served from.
type AvatarUploader interface {
	UploadDataURL(ctx context.Context, dataURL, publicID string) (cloudinary.Image, error)
}

// Server holds the route handlers.
type Server struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Server {
	RegisterValidators()
	return &Server{Deps: d, now: time.Now}
}

var (
	staff    = []model.Role{model.RoleTeacher, model.RoleAdmin, model.RoleDirector}
	managers = []model.Role{model.RoleAdmin, model.RoleDirector}
)

// Register mounts every API route on r.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.GET("/test", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	pub := api.Group("/auth")
	pub.POST("/login", s.login)
	pub.POST("/demo", s.demo)
	pub.POST("/register", s.register)
	pub.POST("/refresh", s.refresh)

	in := api.Group("", auth.RequireAuth(s.Signer))
	in.GET("/me", s.me)
	in.PUT("/me/avatar", s.setAvatar)
	in.GET("/subjects", s.subjects)

	in.GET("/groups", s.listGroups)
	in.POST("/groups", auth.RequireRole(managers...), s.createGroup)
	in.DELETE("/groups/:id", auth.RequireRole(managers...), s.deleteGroup)

	in.GET("/schedule", s.listSchedule)
	in.GET("/schedule/today", s.today)
	in.POST("/schedule", auth.RequireRole(managers...), s.createLesson)
	in.PUT("/schedule/:id", auth.RequireRole(managers...), s.updateLesson)
	in.DELETE("/schedule/:id", auth.RequireRole(managers...), s.deleteLesson)

	in.GET("/attendance/session", auth.RequireRole(staff...), s.openSession)
	in.POST("/attendance/session", auth.RequireRole(staff...), s.saveSession)
	in.GET("/attendance/mine", auth.RequireRole(model.RoleStudent), s.myAttendance)

	in.GET("/ratings", s.leaderboard)
	in.GET("/ratings/export", auth.RequireRole(staff...), s.exportLeaderboard)
	in.GET("/ratings/groups", s.groupStats)
	in.PUT("/ratings/:studentId/score", auth.RequireRole(staff...), s.updateScore)

	in.GET("/library", s.listBooks)
	in.POST("/library", auth.RequireRole(staff...), s.createBook)
	in.PUT("/library/:id", auth.RequireRole(staff...), s.updateBook)
	in.DELETE("/library/:id", auth.RequireRole(staff...), s.deleteBook)

	in.GET("/news", s.listNews)
	in.POST("/news", auth.RequireRole(staff...), s.createNews)
	in.DELETE("/news/:id", auth.RequireRole(staff...), s.deleteNews)

	in.GET("/messages/:peerId", s.conversation)
	in.POST("/messages/:peerId", s.sendMessage)

	in.GET("/ai/chat", s.chatHistory)
	in.POST("/ai/chat", s.chat)
	in.DELETE("/ai/chat", s.clearChat)
	in.POST("/ai/report/student", s.studentReport)
	in.POST("/ai/report/collective", auth.RequireRole(managers...), s.collectiveReport)
	in.GET("/ai/jobs/:id", s.job)

	in.POST("/admin/import", auth.RequireRole(model.RoleAdmin), s.importStore)
}

func (s *Server) health(c *gin.Context) {
	healthy := s.Gateway.Healthy(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "store": healthy})
}

// caller loads the authenticated user. It writes the response and returns false when
// the account no longer exists.
func (s *Server) caller(c *gin.Context) (model.User, bool) {
	claims, ok := auth.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return model.User{}, false
	}
	u, err := s.Repos.Users.Get(c.Request.Context(), claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
		return model.User{}, false
	}
	if err != nil {
		fail(c, err)
		return model.User{}, false
	}
	return u, true
}

// bind decodes the JSON body into v and answers 400 with per-field messages on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": bindErrors(err)})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, v any) bool {
	if err := c.ShouldBindQuery(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": bindErrors(err)})
		return false
	}
	return true
}

// fail maps service errors to status codes.
func fail(c *gin.Context, err error) {
	switch {
	case account.IsValidation(err), attendance.IsValidation(err), errors.Is(err, repository.ErrInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrUnknownEmail), errors.Is(err, repository.ErrNotFound), errors.Is(err, rating.ErrUnknownStudent):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
