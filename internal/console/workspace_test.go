package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/session"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/upstream"
)

func testSession(id string) *session.Session {
	return &session.Session{
		ID:    id,
		Token: "tok-" + id,
		Profile: models.Profile{
			UserID:   7,
			RealName: "관리자",
			Position: "admin",
		},
	}
}

func newTestManager() *Manager {
	up := upstream.NewClient("http://127.0.0.1:0", time.Second)
	return NewManager(up, nil, nil)
}

func TestEnsureIsIdempotentPerSession(t *testing.T) {
	m := newTestManager()

	ws1 := m.Ensure(testSession("s1"))
	ws2 := m.Ensure(testSession("s1"))
	require.Same(t, ws1, ws2)
	require.Equal(t, 1, m.Count())

	other := m.Ensure(testSession("s2"))
	require.NotSame(t, ws1, other)
	require.NotSame(t, ws1.Bus, other.Bus, "sessions must not share a bus")
	require.Equal(t, 2, m.Count())
}

func TestGetDoesNotCreate(t *testing.T) {
	m := newTestManager()

	_, ok := m.Get("missing")
	require.False(t, ok)
	require.Zero(t, m.Count())

	m.Ensure(testSession("s1"))
	ws, ok := m.Get("s1")
	require.True(t, ok)
	require.Equal(t, "s1", ws.SessionID)
}

func TestTeardownDropsWorkspace(t *testing.T) {
	m := newTestManager()
	m.Ensure(testSession("s1"))

	m.Teardown("s1")
	_, ok := m.Get("s1")
	require.False(t, ok)

	// unknown session is a no-op
	m.Teardown("nope")
	require.Zero(t, m.Count())
}
