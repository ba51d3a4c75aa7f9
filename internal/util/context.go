package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/formdesk/internal/models"
)

// Context keys set by the auth middleware.
const (
	UserKey         = "user"
	UserIDKey       = "user_id"
	ImpersonatorKey = "impersonator"
)

// SetUser stores the acting user on the request.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(UserKey, user)
	c.Set(UserIDKey, user.ID)
}

// GetUserFromContext extracts the authenticated user from the Gin context.
// Returns the user and true if found, or nil and false if not authenticated.
// If the user is not authenticated, it automatically responds with 401 Unauthorized.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok || userPtr == nil {
		RespondInternalError(c, "invalid user data in context")
		return nil, false
	}
	return userPtr, true
}

// GetImpersonator returns the admin acting on behalf of the current user,
// if any.
func GetImpersonator(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ImpersonatorKey)
	if !exists {
		return nil, false
	}
	admin, ok := v.(*models.User)
	return admin, ok && admin != nil
}
