package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pledgetrack/backend/internal/auth"
)

const (
	ContextAgentID  = "agent_id"
	ContextBranchID = "branch_id"
)

// Auth verifies the bearer token and stores the agent identity on the
// request context for handlers to read.
func Auth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c, "Missing bearer token")
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			if err == auth.ErrExpiredToken {
				abortUnauthorized(c, "Token expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ContextAgentID, claims.AgentID)
		c.Set(ContextBranchID, claims.BranchID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
