package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "userId"

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing or malformed bearer token",
		})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(userCtxKey, userId)
	c.Next()
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set headers on a
// WebSocket handshake, so ?token= is accepted as well.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(c.Query("token"))
}

// currentUser returns the id stored by userIdMiddleware.
func currentUser(c *gin.Context) int {
	return c.GetInt(userCtxKey)
}
