package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"educontrol/internal/model"
	"educontrol/internal/repository"
)

func (s *Server) conversation(c *gin.Context) {
	u, ok := s.caller(c)
	if !ok {
		return
	}
	msgs, err := s.Repos.Messages.Between(c.Request.Context(), u.ID, c.Param("peerId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) sendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required,notblank"`
	}
	if !bind(c, &req) {
		return
	}
	u, ok := s.caller(c)
	if !ok {
		return
	}
	peer := c.Param("peerId")
	if peer == u.ID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cannot message yourself"})
		return
	}
	if _, err := s.Repos.Users.Get(c.Request.Context(), peer); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
			return
		}
		fail(c, err)
		return
	}
	msg := model.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   u.ID,
		ReceiverID: peer,
		Text:       req.Text,
		Timestamp:  s.now().UnixMilli(),
	}
	if err := s.Repos.Messages.Add(c.Request.Context(), msg); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
