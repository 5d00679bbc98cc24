package handlers

import (
	"context"

	"github.com/MmmDelicious/lovememory-sub007/internal/domain"
	"github.com/MmmDelicious/lovememory-sub007/internal/service"
	"github.com/MmmDelicious/lovememory-sub007/internal/ws"

	"github.com/gin-gonic/gin"
)

// ResultLister reads recorded match results.
type ResultLister interface {
	ListByRoom(ctx context.Context, roomID string) ([]*domain.MatchResult, error)
	ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*domain.MatchResult, error)
}

type Handler struct {
	Hub    *ws.Hub
	Tokens *service.TokenService
	// Results is nil when no database is configured.
	Results ResultLister
	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

func NewHandler(hub *ws.Hub, tokens *service.TokenService, results ResultLister, origins []string) *Handler {
	return &Handler{
		Hub:            hub,
		Tokens:         tokens,
		Results:        results,
		AllowedOrigins: origins,
	}
}

// getUserID reads the player id the JWT middleware stored on the context.
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
