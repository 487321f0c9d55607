package mediator

import (
	"time"

	"github.com/google/uuid"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// Target is where a routed intervention goes: the shared channel, or one
// participant's private channel.
type Target struct {
	Private   bool
	Recipient string // set when Private
}

// Route resolves a decision's visibility against the session's participants
// and yields the delivery target plus the message payload to persist. A
// recipient that is not a known participant fails open to broadcast; the
// router never synthesizes a recipient.
func Route(d *Decision, conv *domain.Conversation, now time.Time) (Target, *domain.Message) {
	recipient := d.Recipient
	if recipient != "" && !conv.HasParticipant(recipient) {
		recipient = ""
	}

	msg := &domain.Message{
		ID:          domain.MessageID(uuid.NewString()),
		SessionCode: conv.SessionCode,
		Sender:      domain.DiplomatSender,
		Content:     d.Content,
		Kind:        domain.MessageKind(d.Kind),
		Fallacy:     d.Fallacy,
		Recipient:   recipient,
		Timestamp:   now,
	}

	return Target{Private: recipient != "", Recipient: recipient}, msg
}

// Event converts a stored message into the transport payload.
func Event(m *domain.Message) domain.ChatEvent {
	return domain.ChatEvent{
		SessionCode: string(m.SessionCode),
		Sender:      m.Sender,
		Content:     m.Content,
		Type:        string(m.Kind),
		Fallacy:     m.Fallacy,
		Recipient:   m.Recipient,
		Timestamp:   m.Timestamp,
	}
}
