package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypanel/hypanel/internal/config"
	"github.com/hypanel/hypanel/internal/logging"
)

// CORS middleware adds CORS headers
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowed := isOriginAllowed(origin, cfg.AllowedOrigins)

		if allowed {
			if origin != "" {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			} else if containsWildcard(cfg.AllowedOrigins) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")

		methods := "GET, POST, PUT, DELETE, OPTIONS"
		if len(cfg.AllowedMethods) > 0 {
			methods = strings.Join(cfg.AllowedMethods, ", ")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", methods)

		// Handle preflight requests
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Logger is a custom logging middleware
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		c.Writer.Header().Set("X-Response-Time", latency.String())

		if path != "/health" || gin.Mode() == gin.DebugMode {
			logging.L().Info("http_request",
				"method", c.Request.Method,
				"path", path,
				"status", c.Writer.Status(),
				"latency", latency.String(),
				"ip", c.ClientIP(),
			)
		}
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return true
	}

	for _, allowedOrigin := range allowedOrigins {
		normalized := strings.TrimSpace(allowedOrigin)
		if normalized == "" {
			continue
		}
		if normalized == "*" || normalized == origin {
			return true
		}
	}

	return false
}

func containsWildcard(allowedOrigins []string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if strings.TrimSpace(allowedOrigin) == "*" {
			return true
		}
	}
	return false
}
