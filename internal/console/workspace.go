// Package console ties a logged-in session to the widget state that
// backs its dashboard. Every session owns an isolated bus and its own
// controllers; nothing is shared between operators.
package console

import (
	"log"
	"sync"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/note"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/repository"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/sms"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/socket"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/userlist"
)

// Workspace holds the live widget state of one session.
type Workspace struct {
	SessionID string
	Bus       *bus.Bus
	Users     *userlist.Controller
	Notes     *note.Controller
	SMS       *sms.Service

	teardown func()
}

// Manager creates workspaces lazily on first use and tears them down
// when their session ends.
type Manager struct {
	up     *upstream.Client
	audit  repository.AuditRepository
	caster *socket.Broadcaster

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewManager(up *upstream.Client, audit repository.AuditRepository, caster *socket.Broadcaster) *Manager {
	return &Manager{
		up:         up,
		audit:      audit,
		caster:     caster,
		workspaces: make(map[string]*Workspace),
	}
}

// Ensure returns the session's workspace, building it on first use.
func (m *Manager) Ensure(sess *session.Session) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ws, ok := m.workspaces[sess.ID]; ok {
		return ws
	}

	b := bus.New()
	ws := &Workspace{
		SessionID: sess.ID,
		Bus:       b,
		Users:     userlist.NewController(m.up, m.audit, b, sess.Token, sess.Profile.UserID),
		Notes:     note.NewController(m.up, m.audit, b, sess.Token, sess.Profile.UserID),
		SMS:       sms.NewService(m.up, m.audit, b, sess.Token, sess.Profile.UserID),
	}
	if m.caster != nil {
		ws.teardown = m.caster.Bind(sess.ID, b)
	}
	m.workspaces[sess.ID] = ws

	log.Printf("[Console] 🧩 Workspace created: session=%s, user=%d", sess.ID, sess.Profile.UserID)
	return ws
}

// Get returns an existing workspace without creating one.
func (m *Manager) Get(sessionID string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[sessionID]
	return ws, ok
}

// Teardown drops the session's workspace and unhooks its socket
// subscriptions. Safe to call for unknown sessions.
func (m *Manager) Teardown(sessionID string) {
	m.mu.Lock()
	ws, ok := m.workspaces[sessionID]
	if ok {
		delete(m.workspaces, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if ws.teardown != nil {
		ws.teardown()
	}
	if m.caster != nil {
		m.caster.SessionEnded(sessionID)
	}
	log.Printf("[Console] 🧹 Workspace dropped: session=%s", sessionID)
}

// SessionIDs lists the sessions that currently hold live widget state.
func (m *Manager) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.workspaces))
	for id := range m.workspaces {
		ids = append(ids, id)
	}
	return ids
}

// Count reports how many sessions currently hold live widget state.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}
