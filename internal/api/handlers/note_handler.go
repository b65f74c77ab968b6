package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

type NoteHandler struct {
	workspaces *console.Manager
}

// Current fetches the active note (latest ongoing, or the selected tag)
func (h *NoteHandler) Current(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	if err := ws.Notes.Fetch(c.Request.Context()); err != nil {
		log.Printf("❌ [Note] Fetch failed - Error: %v", err)
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// AddTodo appends a todo item to the active note
func (h *NoteHandler) AddTodo(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.AddTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := ws.Notes.AddTodo(c.Request.Context(), req.Text)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"item":     item,
		"snapshot": ws.Notes.Snapshot(),
	})
}

// ToggleTodo flips one todo's completion flag
func (h *NoteHandler) ToggleTodo(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo id"})
		return
	}

	if err := ws.Notes.ToggleTodo(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// RemoveTodo deletes a todo item from the active note
func (h *NoteHandler) RemoveTodo(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo id"})
		return
	}

	if err := ws.Notes.RemoveTodo(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// AddMembers attaches users to the active note
func (h *NoteHandler) AddMembers(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ws.Notes.AddMembers(c.Request.Context(), req.UserIDs); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// RemoveMembers detaches users from the active note
func (h *NoteHandler) RemoveMembers(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ws.Notes.RemoveMembers(c.Request.Context(), req.UserIDs); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// DisplayMembers hands the active note's member rows to the user list
func (h *NoteHandler) DisplayMembers(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	count, err := ws.Notes.DisplayMembers(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memberCount": count,
		"list":        ws.Users.Snapshot(),
	})
}

// SearchMember runs a user search on the note widget's behalf
func (h *NoteHandler) SearchMember(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.MemberSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ws.Notes.SearchMember(req.Name); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Users.Snapshot())
}

// ============================================
// Tags
// ============================================

// ListTags returns the session's tag list
func (h *NoteHandler) ListTags(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	tags, err := ws.Notes.Tags(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// CreateTag creates a named note alias
func (h *NoteHandler) CreateTag(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := ws.Notes.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// SelectTag pins the note widget to a tag
func (h *NoteHandler) SelectTag(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	var req models.SelectTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ws.Notes.SelectTag(c.Request.Context(), req.TagID, req.Name); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ws.Notes.Snapshot())
}

// DeleteTag soft-deletes a tag
func (h *NoteHandler) DeleteTag(c *gin.Context) {
	ws, ok := requireWorkspace(c, h.workspaces)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tag id"})
		return
	}

	if err := ws.Notes.DeleteTag(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
}
