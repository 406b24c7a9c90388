package auth

import (
	"Recall_1.0/backend/go/internal/apperr"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserKey is where RequireUser stores the verified user id.
const ContextUserKey = "userID"

// RequireUser rejects requests without a valid "Bearer <token>" header.
func RequireUser(t *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Malformed Authorization header"})
			return
		}

		userID, err := t.VerifyToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserFrom returns the user id set by RequireUser.
func UserFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Owner picks the acting user. With a verified token the token user wins and a
// different claimed user is forbidden; without one the claimed user is used.
func Owner(c *gin.Context, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	verified, ok := UserFrom(c)
	if !ok {
		return claimed, nil
	}
	if claimed != "" && claimed != verified {
		return "", apperr.Forbidden("Token does not belong to user " + claimed)
	}
	return verified, nil
}

type tokenRequest struct {
	User string `json:"user"`
}

// IssueHandler serves POST /auth/token for local development.
func IssueHandler(t *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.User) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user"})
			return
		}
		token, err := t.GenerateToken(strings.TrimSpace(req.User))
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(t.ttl.Seconds())})
	}
}
