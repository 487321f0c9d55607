package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 32
)

var timeNow = time.Now

// client is one websocket connection of a named participant.
type client struct {
	conn *websocket.Conn
	name string
	send chan domain.ChatEvent
}

func newClient(conn *websocket.Conn, name string) *client {
	return &client{
		conn: conn,
		name: name,
		send: make(chan domain.ChatEvent, sendBuffer),
	}
}

// enqueue hands an event to the write pump without blocking; a full buffer
// means the event is dropped for this connection.
func (c *client) enqueue(ev domain.ChatEvent) {
	select {
	case c.send <- ev:
	default:
		observability.Logger().Warn("dropping event for slow client", "participant", c.name)
	}
}

// writePump serializes outbound events onto the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
