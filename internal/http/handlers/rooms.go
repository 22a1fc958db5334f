package handlers

import (
	"net/http"

	"chessroom/internal/logger"

	"github.com/gin-gonic/gin"
)

type roomURI struct {
	Code string `uri:"code" binding:"required,roomcode"`
}

// CreateRoom opens an empty room, the HTTP counterpart of create_room.
func (h *Handler) CreateRoom(c *gin.Context) {
	code, invite, err := h.Rooms.Create()
	if err != nil {
		logger.Error("create room failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to create room"})
		return
	}

	logger.Info("room created", "room", code, "via", "http")
	c.JSON(http.StatusCreated, gin.H{
		"roomCode":  code,
		"inviteUrl": invite,
	})
}

// GetRoom returns a neutral snapshot of the room.
func (h *Handler) GetRoom(c *gin.Context) {
	var uri roomURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room code"})
		return
	}

	s, ok := h.Rooms.Get(uri.Code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": s.Snapshot("")})
}
