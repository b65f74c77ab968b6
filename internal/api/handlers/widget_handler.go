package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/socket"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/widget"
)

type WidgetHandler struct {
	registry    *widget.Registry
	broadcaster *socket.Broadcaster
}

// List returns the widgets visible to this operator's position
func (h *WidgetHandler) List(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	widgets, err := h.registry.VisibleFor(c.Request.Context(), sess.Profile.UserID, sess.Profile.Position)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"widgets": widgets})
}

// ListAll returns the full widget table for the settings panel, gated
// widgets included
func (h *WidgetHandler) ListAll(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	widgets, err := h.registry.All(c.Request.Context(), sess.Profile.UserID, sess.Profile.Position)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"widgets": widgets})
}

// SetVisibility toggles one widget on or off for this operator
func (h *WidgetHandler) SetVisibility(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	widgetID := c.Param("id")

	var req models.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.SetVisible(c.Request.Context(), sess.Profile.UserID, widgetID, *req.IsVisible); err != nil {
		log.Printf("❌ [Widget] SetVisible failed - Widget: %s, Error: %v", widgetID, err)
		handleServiceError(c, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.WidgetVisibilityChanged(sess.ID, widgetID, *req.IsVisible)
	}

	c.JSON(http.StatusOK, gin.H{"widgetId": widgetID, "isVisible": *req.IsVisible})
}
