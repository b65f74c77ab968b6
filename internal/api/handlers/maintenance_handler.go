package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/maintenance"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
)

type MaintenanceHandler struct {
	service *maintenance.Service
}

// Snapshot serves the cached disk/service health view
func (h *MaintenanceHandler) Snapshot(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(c.Request.Context(), sess.Token)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

type AuditHandler struct {
	audit repository.AuditRepository
}

// List returns the most recent audit entries
func (h *AuditHandler) List(c *gin.Context) {
	if _, ok := requireSession(c); !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
