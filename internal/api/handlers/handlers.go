package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/api/middleware"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/console"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/maintenance"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/note"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/sms"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/socket"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/widget"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth        *AuthHandler
	List        *ListHandler
	Note        *NoteHandler
	Widget      *WidgetHandler
	SMS         *SMSHandler
	Maintenance *MaintenanceHandler
	Audit       *AuditHandler
}

// Deps carries everything the handlers need.
type Deps struct {
	Sessions    *session.Service
	Workspaces  *console.Manager
	Widgets     *widget.Registry
	Maintenance *maintenance.Service
	Audit       repository.AuditRepository
	Broadcaster *socket.Broadcaster
}

// NewHandlers creates all handlers
func NewHandlers(deps *Deps) *Handlers {
	return &Handlers{
		Auth:        &AuthHandler{sessions: deps.Sessions, workspaces: deps.Workspaces, maintenance: deps.Maintenance},
		List:        &ListHandler{workspaces: deps.Workspaces},
		Note:        &NoteHandler{workspaces: deps.Workspaces},
		Widget:      &WidgetHandler{registry: deps.Widgets, broadcaster: deps.Broadcaster},
		SMS:         &SMSHandler{workspaces: deps.Workspaces},
		Maintenance: &MaintenanceHandler{service: deps.Maintenance},
		Audit:       &AuditHandler{audit: deps.Audit},
	}
}

// ============================================
// Session Helpers
// ============================================

func requireSession(c *gin.Context) (*session.Session, bool) {
	return middleware.RequireSession(c)
}

// requireWorkspace resolves the session's widget state, building it on
// first use (e.g. after a server restart with a live token).
func requireWorkspace(c *gin.Context, m *console.Manager) (*console.Workspace, bool) {
	sess, ok := requireSession(c)
	if !ok {
		return nil, false
	}
	return m.Ensure(sess), true
}

// ============================================
// Error Mapping
// ============================================

// handleServiceError translates domain errors into HTTP responses
func handleServiceError(c *gin.Context, err error) {
	var apiErr *upstream.APIError

	switch {
	case errors.Is(err, note.ErrTodoEmpty),
		errors.Is(err, note.ErrTodoTooLong),
		errors.Is(err, note.ErrNameRequired),
		errors.Is(err, sms.ErrNoRecipients):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, note.ErrTodoNotFound),
		errors.Is(err, note.ErrTagNotFound),
		errors.Is(err, note.ErrNoActiveNote),
		errors.Is(err, upstream.ErrNoNotes),
		errors.Is(err, widget.ErrUnknownWidget):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, note.ErrDuplicateTag):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &apiErr):
		// Relay the upstream verdict as-is
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})

	case errors.Is(err, upstream.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
