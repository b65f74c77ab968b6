package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tellmebaby/nugunaup-console-sub000/internal/models"
)

func TestPublishInvokesListenersInRegistrationOrder(t *testing.T) {
	b := New()

	var got []string
	b.SearchUsers.Subscribe(func(term string) { got = append(got, "first:"+term) })
	b.SearchUsers.Subscribe(func(term string) { got = append(got, "second:"+term) })

	b.SearchUsers.Publish("kim")

	assert.Equal(t, []string{"first:kim", "second:kim"}, got)
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	b := New()

	b.SelectUser.Publish(42)

	var got []int64
	b.SelectUser.Subscribe(func(id int64) { got = append(got, id) })

	assert.Empty(t, got, "no replay for late subscribers")

	b.SelectUser.Publish(7)
	assert.Equal(t, []int64{7}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	calls := 0
	unsub := b.SearchUsers.Subscribe(func(string) { calls++ })

	b.SearchUsers.Publish("a")
	unsub()
	b.SearchUsers.Publish("b")
	unsub() // idempotent

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SearchUsers.ListenerCount())
}

func TestUnsubscribeDuringDispatchDoesNotSkipSiblings(t *testing.T) {
	b := New()

	var unsub func()
	firstCalls, secondCalls := 0, 0
	unsub = b.SearchUsers.Subscribe(func(string) {
		firstCalls++
		unsub()
	})
	b.SearchUsers.Subscribe(func(string) { secondCalls++ })

	b.SearchUsers.Publish("x")
	b.SearchUsers.Publish("y")

	assert.Equal(t, 1, firstCalls)
	assert.Equal(t, 2, secondCalls)
}

func TestTypedPayloadDelivery(t *testing.T) {
	b := New()

	var got []models.SMSRecipient
	b.SMSSelectedUsers.Subscribe(func(rs []models.SMSRecipient) { got = rs })

	b.SMSSelectedUsers.Publish([]models.SMSRecipient{
		{ID: 1, RealName: "김철수", Phone: "010-1234-5678", IsReceived: "Y"},
	})

	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}
