package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

type SMSHandler struct {
	workspaces *console.Manager
}

// Recipients returns the rows handed over from the user list
func (h *SMSHandler) Recipients(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipients": ws.SMS.Recipients()})
}

// Broadcast sends the message to every opted-in recipient
func (h *SMSHandler) Broadcast(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := ws.SMS.Broadcast(c.Request.Context(), req.Message)
	if err != nil {
		log.Printf("❌ [SMS] Broadcast failed - Error: %v", err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
