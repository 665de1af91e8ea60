package middleware

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// UserContext extracts the acting-user identity from request headers and
// adds it to the request context for the domain layer.
//
// Authentication itself happens upstream (gateway or reverse proxy); the
// engine treats identity as an input. Mutating requests without a user ID
// are rejected so every ledger entry has an author.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)

		if userID == "" {
			if isMutating(c.Request.Method) {
				_ = c.Error(apperror.NewValidation("missing X-User-ID header"))
				c.Abort()
				return
			}
			c.Next()
			return
		}

		user := &appctx.UserContext{
			UserID: userID,
			Name:   c.GetHeader(HeaderUserName),
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)

		c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}
