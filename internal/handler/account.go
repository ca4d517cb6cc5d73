package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"educontrol/internal/account"
	"educontrol/internal/auth"
	"educontrol/internal/cloudinary"
	"educontrol/internal/model"
	"educontrol/internal/repository"
)

type session struct {
	User   model.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (s *Server) issue(c *gin.Context, status int, u model.User) {
	tokens, err := s.Signer.Issue(u.ID, u.Role())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, session{User: u, Tokens: tokens})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,notblank"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := s.Accounts.Login(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	s.issue(c, http.StatusOK, u)
}

func (s *Server) demo(c *gin.Context) {
	var req struct {
		Role model.Role `json:"role" binding:"required,role"`
	}
	if !bind(c, &req) {
		return
	}
	u, err := s.Accounts.Demo(c.Request.Context(), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	s.issue(c, http.StatusOK, u)
}

func (s *Server) register(c *gin.Context) {
	var req account.Registration
	if !bind(c, &req) {
		return
	}
	u, err := s.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	s.issue(c, http.StatusCreated, u)
}

func (s *Server) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	claims, err := s.Signer.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	u, err := s.Accounts.User(c.Request.Context(), claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	s.issue(c, http.StatusOK, u)
}

// me returns the caller and, for students, their derived rating profile.
func (s *Server) me(c *gin.Context) {
	u, ok := s.caller(c)
	if !ok {
		return
	}
	if u.Role() != model.RoleStudent {
		c.JSON(http.StatusOK, gin.H{"user": u})
		return
	}
	p, err := s.Ratings.Profile(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "profile": p})
}

func (s *Server) subjects(c *gin.Context) {
	out, err := s.Accounts.Subjects(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": out})
}

// setAvatar uploads a data URL image and stores its public address on the caller.
func (s *Server) setAvatar(c *gin.Context) {
	var req struct {
		Image string `json:"image" binding:"required,startswith=data:image/"`
	}
	if !bind(c, &req) {
		return
	}
	u, ok := s.caller(c)
	if !ok {
		return
	}
	if s.Avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": cloudinary.ErrNotConfigured.Error()})
		return
	}
	img, err := s.Avatars.UploadDataURL(c.Request.Context(), req.Image, u.ID)
	if errors.Is(err, cloudinary.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("avatar upload for %s failed: %v", u.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	u.Avatar = img.SecureURL
	if err := s.Repos.Users.Update(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
