package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
)

// AuthMiddleware validates console JWTs, resolves the backing session
// and sets session context for handlers
func AuthMiddleware(sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("❌ [Auth] Missing Authorization header - Path: %s", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Printf("❌ [Auth] Invalid header format - Path: %s", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Validate token
		token, err := sessions.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			log.Printf("❌ [Auth] Invalid token - Path: %s, Error: %v", c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Extract session ID from token
		sessionID, err := sessions.GetSessionIDFromToken(token)
		if err != nil {
			log.Printf("❌ [Auth] Failed to extract session ID - Path: %s, Error: %v", c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Token may outlive the session; Redis is the source of truth
		sess, err := sessions.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			log.Printf("❌ [Auth] Session expired - Session: %s, Path: %s", sessionID, c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired"})
			c.Abort()
			return
		}

		c.Set("session", sess)
		c.Set("sessionID", sess.ID)
		c.Next()
	}
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log after request
		duration := time.Since(start)
		status := c.Writer.Status()

		// Color code based on status
		statusEmoji := "✅"
		if status >= 400 && status < 500 {
			statusEmoji = "⚠️"
		} else if status >= 500 {
			statusEmoji = "❌"
		}

		log.Printf("%s [%s] %s %d - %v", statusEmoji, method, path, status, duration)

		// Log errors if any
		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Printf("❌ [Error] %v", e.Err)
			}
		}
	}
}

// ErrorLogger logs detailed error information
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Check for errors after request processing
		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				log.Printf("❌ [Error Details] Path: %s, Method: %s, Error: %v, Type: %v",
					c.Request.URL.Path,
					c.Request.Method,
					err.Err,
					err.Type,
				)
			}
		}
	}
}

// GetSession extracts the resolved session from gin context
func GetSession(c *gin.Context) *session.Session {
	v, exists := c.Get("session")
	if !exists {
		return nil
	}
	return v.(*session.Session)
}

// RequireSession returns an error response if no session is in context
func RequireSession(c *gin.Context) (*session.Session, bool) {
	sess := GetSession(c)
	if sess == nil {
		log.Printf("❌ [Auth] Not authenticated - Path: %s", c.Request.URL.Path)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return sess, true
}

// RequirePosition gates a route on the operator's position
func RequirePosition(positions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := RequireSession(c)
		if !ok {
			c.Abort()
			return
		}
		for _, p := range positions {
			if sess.Profile.Position == p {
				c.Next()
				return
			}
		}
		log.Printf("⚠️ [Auth] Position %q denied - Path: %s", sess.Profile.Position, c.Request.URL.Path)
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}
