package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dinerozz/tracking-backend/internal/metrics"
	"github.com/dinerozz/tracking-backend/internal/model/response/wrapper"
	"github.com/dinerozz/tracking-backend/internal/service/ratelimit"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
	"github.com/dinerozz/tracking-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// AdminMiddleware accepts a JWT from the "token" cookie or a Bearer header and
// lets the request through only when it carries the admin capability.
func AdminMiddleware(secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("token")
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if tokenString == "" {
			wrapper.AbortWithError(c, apperror.Unauthorized("missing authentication token"))
			return
		}

		claims, err := utils.ValidateToken(secret, tokenString)
		if err != nil {
			logger.Debug("rejected admin token", slog.Any("error", err))
			wrapper.AbortWithError(c, apperror.Unauthorized("invalid authentication token"))
			return
		}

		if !utils.IsAdmin(claims) {
			wrapper.AbortWithError(c, apperror.Forbidden("admin access required"))
			return
		}

		c.Set("subject", claims["sub"])
		c.Next()
	}
}

// RateLimitMiddleware limits each client IP to limit requests per window
// within scope.
func RateLimitMiddleware(limiter ratelimit.Limiter, scope string, limit int, window time.Duration, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP(), limit, window) {
			m.RecordRateLimited(scope)
			c.Header("Retry-After", retryAfterSeconds(window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, wrapper.ErrorWrapper{Message: "Too many requests", Success: false})
			return
		}
		c.Next()
	}
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CORSMiddleware allows localhost origins plus the configured list.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:") || allowed[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
