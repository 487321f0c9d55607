package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
	"github.com/diplomat-labs/diplomat/internal/observability"
	"github.com/diplomat-labs/diplomat/internal/session"
)

// Inbound event types a client may send.
const (
	eventChat       = "CHAT"
	eventJoin       = "JOIN"
	eventRewind     = "REWIND"
	eventTempCheck  = "TEMP_CHECK"
	eventTranslate  = "TRANSLATE"
	eventParkingLot = "PARKING_LOT"
	eventPrivate    = "PRIVATE"
)

type inboundEvent struct {
	Type    string `json:"type"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Handler upgrades connections at /ws/{code}?name={participant} and
// dispatches inbound events. Mediator work runs in background goroutines so
// chat delivery is never blocked on the model.
type Handler struct {
	hub      *Hub
	sessions *session.Service
	engine   *mediator.Engine
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, sessions *session.Service, engine *mediator.Engine) *Handler {
	return &Handler{
		hub:      hub,
		sessions: sessions,
		engine:   engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := domain.SessionCode(strings.TrimPrefix(r.URL.Path, "/ws/"))
	name := r.URL.Query().Get("name")
	if code == "" || name == "" {
		http.Error(w, "session code and name are required", http.StatusBadRequest)
		return
	}

	if _, err := h.sessions.Get(code); err != nil {
		http.NotFound(w, r)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.Logger().Error("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn, name)
	h.hub.register(code, c)
	go c.writePump()
	h.readPump(code, c)
}

func (h *Handler) readPump(code domain.SessionCode, c *client) {
	defer func() {
		h.hub.unregister(code, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(timeNow().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(timeNow().Add(pongWait))
		return nil
	})

	for {
		var ev inboundEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				observability.Logger().Warn("websocket read failed", "error", err)
			}
			return
		}
		if ev.Sender == "" {
			ev.Sender = c.name
		}
		h.dispatch(code, ev)
	}
}

func (h *Handler) dispatch(code domain.SessionCode, ev inboundEvent) {
	ctx := observability.WithSessionCode(context.Background(), string(code))
	log := observability.LoggerFromContext(ctx)

	switch ev.Type {
	case eventChat:
		msg, err := h.sessions.SaveChat(ctx, code, ev.Sender, ev.Content)
		if err != nil {
			log.Error("failed to save chat message", "error", err)
			return
		}
		h.hub.Broadcast(code, mediator.Event(msg))
		h.engine.TriggerAnalysis(code, ev.Sender, ev.Content)

	case eventJoin:
		h.hub.Broadcast(code, systemEvent(code,
			ev.Sender+" has joined the conversation. Welcome! I'm The Diplomat, your communication helper. I'll be here if you need me. \U0001F44B"))

	case eventRewind:
		content := fmt.Sprintf("%s would like to rewind. %s, go ahead and rephrase what you meant.", ev.Sender, ev.Sender)
		msg, err := h.sessions.SaveSystem(ctx, code, content)
		if err != nil {
			log.Error("failed to save rewind notice", "error", err)
			return
		}
		h.hub.Broadcast(code, mediator.Event(msg))

	case eventTempCheck:
		content := "\U0001F321️ Temperature check! On a scale of 1-10 (1 = calm, 10 = boiling), how are you each feeling right now?"
		msg, err := h.sessions.SaveDiplomat(ctx, code, content, domain.KindTemperatureCheck, "", "")
		if err != nil {
			log.Error("failed to save temperature check", "error", err)
			return
		}
		h.hub.Broadcast(code, mediator.Event(msg))

	case eventParkingLot:
		content := fmt.Sprintf("\U0001F17F️ Parked for later: %q — Great idea to set that aside. You can come back to it when you're ready.", ev.Content)
		msg, err := h.sessions.SaveDiplomat(ctx, code, content, domain.KindParkingLot, "", "")
		if err != nil {
			log.Error("failed to save parking lot notice", "error", err)
			return
		}
		h.hub.Broadcast(code, mediator.Event(msg))

	case eventTranslate:
		// ev.Sender = who originally said it, ev.Content = the text.
		go func() {
			resp, err := h.engine.Translate(ctx, code, ev.Sender, ev.Content)
			if err != nil {
				log.Error("translation failed", "error", err)
				return
			}
			msg, err := h.sessions.SaveDiplomat(ctx, code, resp.Content, resp.Kind, "", "")
			if err != nil {
				log.Error("failed to save translation", "error", err)
				return
			}
			h.hub.Broadcast(code, mediator.Event(msg))
		}()

	case eventPrivate:
		msg, err := h.sessions.SavePrivate(ctx, code, ev.Sender, ev.Content)
		if err != nil {
			log.Error("failed to save private message", "error", err)
			return
		}
		// Echo the sender's own message so it shows in their private panel.
		h.hub.SendPrivate(code, ev.Sender, mediator.Event(msg))

		go func() {
			resp, err := h.engine.PrivateCoach(ctx, code, ev.Sender, ev.Content)
			if err != nil {
				log.Error("private coaching failed", "participant", ev.Sender, "error", err)
				return
			}
			coached, err := h.sessions.SaveDiplomat(ctx, code, resp.Content, resp.Kind, "", resp.Recipient)
			if err != nil {
				log.Error("failed to save coaching response", "error", err)
				return
			}
			h.hub.SendPrivate(code, ev.Sender, mediator.Event(coached))
		}()

	default:
		log.Warn("unknown event type", "type", ev.Type, "sender", ev.Sender)
	}
}

func systemEvent(code domain.SessionCode, content string) domain.ChatEvent {
	return domain.ChatEvent{
		SessionCode: string(code),
		Sender:      domain.SystemSender,
		Content:     content,
		Type:        string(domain.KindSystem),
		Timestamp:   timeNow(),
	}
}
