package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/types"
)

type ListHandler struct {
	workspaces *console.Manager
}

func isValidSortField(field string) bool {
	for _, f := range types.ValidSortFields {
		if f == field {
			return true
		}
	}
	return false
}

// Get returns the current list state without touching upstream
func (h *ListHandler) Get(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// Search starts a fresh search and replaces the visible rows
func (h *ListHandler) Search(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ws.Users.Search(c.Request.Context(), req.Term, req.Limit); err != nil {
		log.Printf("❌ [List] Search failed - Term: %q, Error: %v", req.Term, err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// LoadMore appends the next page of the active search
func (h *ListHandler) LoadMore(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	if err := ws.Users.LoadMore(c.Request.Context()); err != nil {
		log.Printf("❌ [List] LoadMore failed - Error: %v", err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// Sort cycles the sort state of a column
func (h *ListHandler) Sort(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isValidSortField(req.Field) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort field"})
		return
	}

	if err := ws.Users.CycleSort(c.Request.Context(), req.Field); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// Select toggles one row's checkbox
func (h *ListHandler) Select(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// rides the bus so every subscriber of the selection sees the toggle
	ws.Bus.SelectUser.Publish(req.UserID)
	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// SelectAll flips every visible row
func (h *ListHandler) SelectAll(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	ws.Users.SelectAll()
	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// ToggleStatus flips the subscription flag for one row or for the whole
// selection, with a mandatory reason
func (h *ListHandler) ToggleStatus(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.UserID != 0 {
		if err := ws.Users.ToggleStatus(c.Request.Context(), req.UserID, req.Reason); err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, ws.Users.Snapshot())
		return
	}

	result, err := ws.Users.BulkToggleStatus(c.Request.Context(), req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":   result,
		"snapshot": ws.Users.Snapshot(),
	})
}

// AddMembersToNote ships the selected rows to the note widget's membership
func (h *ListHandler) AddMembersToNote(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	ids := ws.Users.AddSelectedToNote()
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no rows selected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userIds": ids, "note": ws.Notes.Snapshot()})
}

// RemoveMembersFromNote drops the selected rows from the note's membership
func (h *ListHandler) RemoveMembersFromNote(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	ids := ws.Users.RemoveSelectedFromNote()
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no rows selected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userIds": ids, "note": ws.Notes.Snapshot()})
}

// PublishSelection pushes the selected rows to the SMS widget
func (h *ListHandler) PublishSelection(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	recipients := ws.Users.PublishSMSSelection()
	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}
