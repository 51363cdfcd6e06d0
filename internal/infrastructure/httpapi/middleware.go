package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"NewsRecommender/internal/metrics"
)

const (
	usernameHeader  = "X-Username"
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	usernameKey     = "username"
)

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func observe(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		logger.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// requireUser rejects requests without X-Username with 401.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(usernameHeader))
		if name == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  statusError,
				"message": "authentication required",
			})
			return
		}
		c.Set(usernameKey, name)
		c.Next()
	}
}

// username is the caller set by requireUser, or the raw header on open routes.
func username(c *gin.Context) string {
	if name := c.GetString(usernameKey); name != "" {
		return name
	}
	return strings.TrimSpace(c.GetHeader(usernameHeader))
}
