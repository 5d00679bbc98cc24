package handlers

import (
	"errors"
	"net/http"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/game"
	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gin-gonic/gin"
)

type CreateRoomRequest struct {
	GameType game.Type   `json:"game_type"`
	Config   game.Config `json:"config"`
}

// ListRooms returns live rooms, optionally filtered by ?game= and ?status=.
func (h *Handler) ListRooms(c *gin.Context) {
	filter := ws.Filter{
		Type:   game.Type(c.Query("game")),
		Status: domain.RoomStatus(c.Query("status")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": h.Hub.List(filter)})
}

// CreateRoom opens a room hosted by the caller.
func (h *Handler) CreateRoom(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	room, err := h.Hub.CreateRoom(req.GameType, req.Config, userID)
	switch {
	case errors.Is(err, game.ErrUnknownType), errors.Is(err, game.ErrInvalidConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Error("create room failed", "user", userID, "game", req.GameType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room.Info()})
}

func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.Hub.Room(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room.Info()})
}

// RoomResults lists the results recorded for a room. Closed rooms still
// have their results.
func (h *Handler) RoomResults(c *gin.Context) {
	if h.Results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "results are not recorded"})
		return
	}
	results, err := h.Results.ListByRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
