package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// drain returns everything buffered on a client's send channel.
func drain(c *client) []domain.ChatEvent {
	var out []domain.ChatEvent
	for {
		select {
		case ev := <-c.send:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestBroadcastReachesWholeRoom(t *testing.T) {
	hub := NewHub()
	alex := newClient(nil, "Alex")
	sam := newClient(nil, "Sam")
	hub.register("HUBCODE1", alex)
	hub.register("HUBCODE1", sam)

	other := newClient(nil, "Riley")
	hub.register("OTHER001", other)

	hub.Broadcast("HUBCODE1", domain.ChatEvent{Sender: "Alex", Content: "hello"})

	require.Len(t, drain(alex), 1)
	require.Len(t, drain(sam), 1)
	assert.Empty(t, drain(other), "events must not cross rooms")
}

func TestSendPrivateTargetsOneParticipant(t *testing.T) {
	hub := NewHub()
	alex := newClient(nil, "Alex")
	sam := newClient(nil, "Sam")
	hub.register("HUBCODE1", alex)
	hub.register("HUBCODE1", sam)

	hub.SendPrivate("HUBCODE1", "Sam", domain.ChatEvent{Sender: "DIPLOMAT", Content: "just for you"})

	assert.Empty(t, drain(alex))
	events := drain(sam)
	require.Len(t, events, 1)
	assert.Equal(t, "just for you", events[0].Content)
}

func TestSendPrivateUnknownParticipantIsDropped(t *testing.T) {
	hub := NewHub()
	alex := newClient(nil, "Alex")
	hub.register("HUBCODE1", alex)

	hub.SendPrivate("HUBCODE1", "Nobody", domain.ChatEvent{Content: "lost"})
	assert.Empty(t, drain(alex))
}

func TestUnregisterClosesAndEmptiesRoom(t *testing.T) {
	hub := NewHub()
	alex := newClient(nil, "Alex")
	hub.register("HUBCODE1", alex)
	hub.unregister("HUBCODE1", alex)

	_, open := <-alex.send
	assert.False(t, open, "send channel must be closed on unregister")

	// broadcasting to the now-empty room is a no-op, not a panic
	hub.Broadcast("HUBCODE1", domain.ChatEvent{Content: "anyone?"})
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	slow := newClient(nil, "Alex")
	hub.register("HUBCODE1", slow)

	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast("HUBCODE1", domain.ChatEvent{Content: "flood"})
	}

	assert.Len(t, drain(slow), sendBuffer)
}
