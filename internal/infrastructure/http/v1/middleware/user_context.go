package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	appctx "ebase/internal/core/context"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// UserContext puts the employee forwarded by the gateway into the request context.
// The user name may arrive URL-encoded since headers are ASCII.
//
// The user is then available to the domain layer via appctx.GetUserID(ctx).
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID != "" {
			name := c.GetHeader(HeaderUserName)
			if decoded, err := url.QueryUnescape(name); err == nil {
				name = decoded
			}
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID:   userID,
				UserName: strings.TrimSpace(name),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
