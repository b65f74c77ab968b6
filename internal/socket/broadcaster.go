package socket

import (
	"github.com/tellmebaby/nugunaup-console-sub000/internal/bus"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

// Broadcaster mirrors a session's in-process widget events onto its
// WebSocket connections so every open tab stays in sync.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Bind subscribes to every topic of a session's bus and fans the events
// out to that session's tabs. The returned function tears the
// subscriptions down; call it when the session ends.
func (b *Broadcaster) Bind(sessionID string, events *bus.Bus) func() {
	unsubs := []func(){
		events.SearchUsers.Subscribe(func(query string) {
			b.hub.SendToSession(sessionID, MessageSearchStarted, map[string]interface{}{
				"query": query,
			})
		}),
		events.DisplayUsers.Subscribe(func(users []models.User) {
			b.hub.SendToSession(sessionID, MessageDisplayUsers, map[string]interface{}{
				"count": len(users),
			})
		}),
		events.SelectUser.Subscribe(func(userID int64) {
			b.hub.SendToSession(sessionID, MessageUserSelected, map[string]interface{}{
				"userId": userID,
			})
		}),
		events.AddMembersToNote.Subscribe(func(ids []int64) {
			b.hub.SendToSession(sessionID, MessageNoteMembersAdded, map[string]interface{}{
				"userIds": ids,
			})
		}),
		events.RemoveMembersFromNote.Subscribe(func(ids []int64) {
			b.hub.SendToSession(sessionID, MessageNoteMembersRemoved, map[string]interface{}{
				"userIds": ids,
			})
		}),
		events.SMSSelectedUsers.Subscribe(func(recipients []models.SMSRecipient) {
			b.hub.SendToSession(sessionID, MessageSMSSelection, map[string]interface{}{
				"count": len(recipients),
			})
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// SessionEnded tells every tab of a session that it has been logged out.
func (b *Broadcaster) SessionEnded(sessionID string) {
	b.hub.SendToSession(sessionID, MessageSessionEnded, nil)
}

// WidgetVisibilityChanged tells a session's tabs that a widget was
// toggled so the other tabs re-render their layout.
func (b *Broadcaster) WidgetVisibilityChanged(sessionID, widgetID string, visible bool) {
	b.hub.SendToSession(sessionID, MessageWidgetVisibility, map[string]interface{}{
		"widgetId": widgetID,
		"visible":  visible,
	})
}
