package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/maintenance"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
)

type AuthHandler struct {
	sessions    *session.Service
	workspaces  *console.Manager
	maintenance *maintenance.Service
}

// Login authenticates against the auction backend and opens a console
// session
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Printf("❌ [Auth] Login failed - User: %s, Error: %v", req.Username, err)
		handleServiceError(c, err)
		return
	}

	// Seed the workspace and lend the upstream token to the
	// maintenance refresher
	if sess := h.resolveFromToken(c, resp.AccessToken); sess != nil {
		h.workspaces.Ensure(sess)
		if h.maintenance != nil {
			h.maintenance.SetToken(sess.Token)
		}
	}

	log.Printf("✅ [Auth] Login success - User: %s", req.Username)
	c.JSON(http.StatusOK, resp)
}

// Logout tears the session down. Always answers 200: a token that no
// longer resolves is already logged out.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}

	token, err := h.sessions.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}

	sessionID, err := h.sessions.GetSessionIDFromToken(token)
	if err == nil {
		if err := h.sessions.Logout(c.Request.Context(), sessionID); err != nil {
			log.Printf("⚠️ [Auth] Logout cleanup failed - Session: %s, Error: %v", sessionID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the profile of the current session
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Profile)
}

func (h *AuthHandler) resolveFromToken(c *gin.Context, tokenString string) *session.Session {
	token, err := h.sessions.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		return nil
	}
	sessionID, err := h.sessions.GetSessionIDFromToken(token)
	if err != nil {
		return nil
	}
	sess, err := h.sessions.Resolve(c.Request.Context(), sessionID)
	if err != nil {
		return nil
	}
	return sess
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
