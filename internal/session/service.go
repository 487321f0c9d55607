package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
	"github.com/diplomat-labs/diplomat/internal/observability"
)

// Service owns session lifecycle and message persistence. The mediator core
// reads through it but never mutates session state itself.
type Service struct {
	conversations domain.ConversationStore
	messages      domain.MessageStore
	now           func() time.Time
}

func NewService(conversations domain.ConversationStore, messages domain.MessageStore) *Service {
	return &Service{
		conversations: conversations,
		messages:      messages,
		now:           time.Now,
	}
}

// Create starts a new session with participant A waiting for a partner.
// The session code is the first 8 characters of a UUID, uppercased.
func (s *Service) Create(ctx context.Context, participantA string) (*domain.Conversation, error) {
	code := domain.SessionCode(strings.ToUpper(uuid.NewString()[:8]))

	conv := &domain.Conversation{
		SessionCode:       code,
		ParticipantA:      participantA,
		Status:            domain.StatusWaiting,
		Mode:              domain.ModeFreeTalk,
		InteractionLevelA: 5,
		InteractionLevelB: 5,
		CreatedAt:         s.now(),
	}

	if err := s.conversations.CreateConversation(conv); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("session created",
		"session_code", code, "participant_a", participantA)
	return conv, nil
}

// Join adds participant B and activates the session.
func (s *Service) Join(ctx context.Context, code domain.SessionCode, participantB string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetConversation(code)
	if err != nil {
		return nil, err
	}
	if conv.Status == domain.StatusActive {
		return nil, domain.ErrSessionFull
	}

	conv.ParticipantB = participantB
	conv.Status = domain.StatusActive
	if err := s.conversations.UpdateConversation(conv); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info("participant joined",
		"session_code", code, "participant_b", participantB)
	return conv, nil
}

func (s *Service) Get(code domain.SessionCode) (*domain.Conversation, error) {
	return s.conversations.GetConversation(code)
}

// End marks the session ENDED.
func (s *Service) End(ctx context.Context, code domain.SessionCode) error {
	conv, err := s.conversations.GetConversation(code)
	if err != nil {
		return err
	}
	now := s.now()
	conv.Status = domain.StatusEnded
	conv.EndedAt = &now
	return s.conversations.UpdateConversation(conv)
}

func (s *Service) SetMode(ctx context.Context, code domain.SessionCode, mode domain.Mode) error {
	conv, err := s.conversations.GetConversation(code)
	if err != nil {
		return err
	}
	conv.Mode = mode
	return s.conversations.UpdateConversation(conv)
}

// SetInteractionLevel updates one participant's 1-10 activity preference.
// Out-of-range levels are clamped, not rejected.
func (s *Service) SetInteractionLevel(ctx context.Context, code domain.SessionCode, participant string, level int) (*domain.Conversation, error) {
	conv, err := s.conversations.GetConversation(code)
	if err != nil {
		return nil, err
	}

	clamped := mediator.ClampLevel(level)
	switch participant {
	case conv.ParticipantA:
		conv.InteractionLevelA = clamped
	case conv.ParticipantB:
		conv.InteractionLevelB = clamped
	default:
		return nil, domain.ErrUnknownParticipant
	}

	if err := s.conversations.UpdateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// SetConstitution links a ground-rules document to the session.
func (s *Service) SetConstitution(ctx context.Context, code domain.SessionCode, id domain.ConstitutionID) error {
	conv, err := s.conversations.GetConversation(code)
	if err != nil {
		return err
	}
	conv.ConstitutionID = &id
	return s.conversations.UpdateConversation(conv)
}

// SaveChat persists an ordinary public chat message from a participant.
func (s *Service) SaveChat(ctx context.Context, code domain.SessionCode, sender, content string) (*domain.Message, error) {
	return s.save(code, sender, content, domain.KindChat, "", "")
}

// SaveSystem persists a system notice (join, rewind).
func (s *Service) SaveSystem(ctx context.Context, code domain.SessionCode, content string) (*domain.Message, error) {
	return s.save(code, domain.SystemSender, content, domain.KindSystem, "", "")
}

// SavePrivate persists a participant's private message to the mediator. The
// sender is also the recipient: only they (and the mediator) see it.
func (s *Service) SavePrivate(ctx context.Context, code domain.SessionCode, sender, content string) (*domain.Message, error) {
	return s.save(code, sender, content, domain.KindPrivate, "", sender)
}

// SaveDiplomat persists a mediator message with optional fallacy label and
// optional private recipient.
func (s *Service) SaveDiplomat(ctx context.Context, code domain.SessionCode, content string, kind domain.MessageKind, fallacy, recipient string) (*domain.Message, error) {
	return s.save(code, domain.DiplomatSender, content, kind, fallacy, recipient)
}

func (s *Service) save(code domain.SessionCode, sender, content string, kind domain.MessageKind, fallacy, recipient string) (*domain.Message, error) {
	if _, err := s.conversations.GetConversation(code); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:          domain.MessageID(uuid.NewString()),
		SessionCode: code,
		Sender:      sender,
		Content:     content,
		Kind:        kind,
		Fallacy:     fallacy,
		Recipient:   recipient,
		Timestamp:   s.now(),
	}
	if err := s.messages.AppendMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the full timeline, private messages included.
func (s *Service) History(code domain.SessionCode) ([]*domain.Message, error) {
	return s.messages.ListMessages(code)
}

// HistoryFor returns the timeline as one participant sees it: public
// messages plus their own private exchanges.
func (s *Service) HistoryFor(code domain.SessionCode, participant string) ([]*domain.Message, error) {
	all, err := s.messages.ListMessages(code)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, 0, len(all))
	for _, m := range all {
		if m.VisibleTo(participant) {
			out = append(out, m)
		}
	}
	return out, nil
}

// PrivateChannel returns only the private exchange between one participant
// and the mediator.
func (s *Service) PrivateChannel(code domain.SessionCode, participant string) ([]*domain.Message, error) {
	all, err := s.messages.ListMessages(code)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, 0)
	for _, m := range all {
		if m.Recipient == participant || (m.Sender == participant && m.Recipient != "") {
			out = append(out, m)
		}
	}
	return out, nil
}
