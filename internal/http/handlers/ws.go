package handlers

import (
	"net/http"
	"slices"

	"github.com/MmmDelicious/lovememory-sub007/internal/logger"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades the connection. The caller identifies with either a player
// token (?token=) or a resumption credential (?resume=), in which case the
// client is reattached to its seat right away.
func (h *Handler) WS(c *gin.Context) {
	var (
		playerID int64
		name     string
		resumeTo string
	)
	switch {
	case c.Query("resume") != "":
		res, err := h.Tokens.ParseResume(c.Query("resume"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid resume token"})
			return
		}
		playerID, name, resumeTo = res.PlayerID, res.Name, res.RoomID
	case c.Query("token") != "":
		p, err := h.Tokens.ParsePlayer(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		playerID, name = p.ID, p.Name
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(h.AllowedOrigins) == 0 {
				return true
			}
			return slices.Contains(h.AllowedOrigins, r.Header.Get("Origin"))
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws upgrade error", "player", playerID, "error", err)
		return
	}

	client := ws.NewClient(playerID, name, conn, h.Hub)
	if resumeTo != "" {
		client.Resume(resumeTo)
	}
	go client.Run()
}
