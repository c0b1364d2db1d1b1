package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"
	"fitcoach/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ContextSessionKey is the gin context key holding the caller's service.Session.
const ContextSessionKey = "session"

// TokenParser validates a session token.
type TokenParser interface {
	ParseToken(token string) (service.Session, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		session, err := tokens.ParseToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := getSessionFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, allowedRole := range allowedRoles {
			if session.Role == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", session.Role))
	}
}

// StudentAccessMiddleware lets the coach through and a student only to their
// own record, taken from the :id path parameter.
func StudentAccessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := getSessionFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !session.CanAccess(c.Param("id")) {
			abortWithError(c, http.StatusForbidden, "Access denied: not your student record")
			return
		}
		c.Next()
	}
}

// MetricsMiddleware counts requests by method and status.
func MetricsMiddleware(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		status := c.Writer.Status()
		m.CounterRequests.WithLabelValues(c.Request.Method, strconv.Itoa(status)).Inc()
		if status >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"method": c.Request.Method,
				"path":   c.FullPath(),
				"status": status,
			}).Errorln("request failed")
		}
	}
}

// Helper function to get the session from context (used by handlers)
func getSessionFromContext(c *gin.Context) (service.Session, error) {
	raw, exists := c.Get(ContextSessionKey)
	if !exists {
		return service.Session{}, errors.New("session not found in context")
	}
	session, ok := raw.(service.Session)
	if !ok {
		return service.Session{}, errors.New("invalid session type in context")
	}
	return session, nil
}
