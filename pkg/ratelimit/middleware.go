package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"seatline/internal/shared/utils/response"
	"seatline/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits every request, picking the limit from the route
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		enforce(c, rateLimiter, getRateLimitType(c.FullPath()))
	}
}

func enforce(c *gin.Context, rateLimiter *RateLimiter, limitType RateLimitType) {
	clientIP := getClientIP(c)

	result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
	if err != nil {
		logger.GetDefault().WithError(err).WarnContext(c.Request.Context(), "rate limit check failed")
		response.RespondJSON(c, "error", http.StatusInternalServerError,
			"Rate limit check failed", nil, nil)
		c.Abort()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

	if !result.Allowed {
		logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
		response.RespondJSON(c, "error", http.StatusTooManyRequests,
			"Rate limit exceeded", nil, map[string]interface{}{
				"limit":      result.Limit,
				"reset_time": result.ResetTime,
			})
		c.Abort()
		return
	}

	c.Next()
}

func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/auth/"):
		return RateLimitTypeAuth

	case strings.HasSuffix(path, "/reservations/add-seat"):
		return RateLimitTypeClaim

	case strings.Contains(path, "/users/"),
		strings.Contains(path, "/tokens"),
		strings.HasSuffix(path, "/cancel"),
		strings.HasSuffix(path, "/finish"),
		strings.HasSuffix(path, "/paid"),
		strings.HasSuffix(path, "-confirmation"):
		return RateLimitTypeAdmin

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	// Check X-Forwarded-For header
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	// Check X-Real-IP header
	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return ip
}
