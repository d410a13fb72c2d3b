package util

import (
	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key the auth middleware stores the caller's ID under
const UserIDKey = "user_id"

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it responds with AUTHENTICATION_REQUIRED.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	if userID == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return userID, true
}

// GetOptionalUserID returns the caller's ID when one was authenticated
func GetOptionalUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(UserIDKey)
	return userID, userID != ""
}
