package middleware

import (
	"net/http"
	"strings"

	"github.com/MmmDelicious/lovememory-sub007/internal/service"

	"github.com/gin-gonic/gin"
)

// PlayerParser verifies player tokens.
type PlayerParser interface {
	ParsePlayer(token string) (service.Player, error)
}

// JWT requires a player token in the Authorization header (Bearer) or the
// token query parameter and stores user_id / user_name in the context.
func JWT(tokens PlayerParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		player, err := tokens.ParsePlayer(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", player.ID)
		c.Set("user_name", player.Name)
		c.Next()
	}
}
