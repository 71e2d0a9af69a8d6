package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the back-office frontend to call the API. An empty origin list
// allows every origin, which is meant for development only.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders(HeaderIdempotencyKey, HeaderRequestID, HeaderUserID, HeaderUserName)
	cfg.AddExposeHeaders("Content-Disposition", HeaderRequestID, HeaderTraceID)
	return cors.New(cfg)
}
