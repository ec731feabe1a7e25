package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDKey = "trace_id"
	sessionKey = "session"

	// SessionHeader carries the session token for clients without cookies.
	SessionHeader = "X-Session-Token"
)

func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Trace-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(traceIDKey, id)
		c.Writer.Header().Set("X-Trace-ID", id)
		c.Next()
	}
}

// AccessLogMiddleware logs every request and records the HTTP metrics.
func AccessLogMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		log.Info("http request", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"trace_id":   traceID(c),
		})
	}
}

// SessionMiddleware establishes the visitor session once and reissues the
// token when a new session had to be created.
func SessionMiddleware(m *session.Manager, cookieName string, secure bool, ttl time.Duration, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionHeader)
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		sess, issued, err := m.Establish(c.Request.Context(), token)
		if err != nil {
			HandleServiceError(c, log, err, nil)
			c.Abort()
			return
		}
		if issued != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, issued, int(ttl.Seconds()), "/", "", secure, true)
			c.Writer.Header().Set(SessionHeader, issued)
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GateMiddleware refuses unauthenticated sessions when the login gate is on.
// Paths in open are always served.
func GateMiddleware(m *session.Manager, open ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(open))
	for _, p := range open {
		allowed[p] = true
	}
	return func(c *gin.Context) {
		if allowed[c.FullPath()] || m.Allowed(currentSession(c)) {
			c.Next()
			return
		}
		RespondError(c, http.StatusUnauthorized, errors.ErrCodeAuthenticationFailed, msgGateRequired)
		c.Abort()
	}
}

func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*models.Session)
	return sess
}
