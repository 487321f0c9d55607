package domain

// Conversation is a mediated two-party session. ParticipantB stays empty
// until the second person joins.
type Conversation struct {
	SessionCode  SessionCode
	ParticipantA string
	ParticipantB string
	Status       Status
	Mode         Mode

	// Per-participant mediator activity preference, 1 (silent) to 10 (very active).
	InteractionLevelA int
	InteractionLevelB int

	ConstitutionID *ConstitutionID

	CreatedAt Timestamp
	EndedAt   *Timestamp
}

// HasParticipant reports whether name is one of the two participants.
func (c *Conversation) HasParticipant(name string) bool {
	return name != "" && (name == c.ParticipantA || name == c.ParticipantB)
}

// OtherParticipant returns the participant opposite to name. Empty if name
// is not a participant or the session has only one participant so far.
func (c *Conversation) OtherParticipant(name string) string {
	switch name {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	default:
		return ""
	}
}

// Message is an append-only record in a conversation timeline. Recipient empty
// means public; otherwise the message is visible only to that participant
// (plus its sender). Never mutated after creation.
type Message struct {
	ID          MessageID
	SessionCode SessionCode
	Sender      string // participant name, DIPLOMAT or SYSTEM
	Content     string
	Kind        MessageKind
	Fallacy     string // empty unless the mediator flagged a fallacy
	Recipient   string // empty = public
	Timestamp   Timestamp
}

// Public reports whether the message is visible to both participants.
func (m *Message) Public() bool {
	return m.Recipient == ""
}

// VisibleTo reports whether viewer may see this message: everything public,
// plus the viewer's own private exchanges, never the other participant's.
func (m *Message) VisibleTo(viewer string) bool {
	return m.Recipient == "" || m.Recipient == viewer || m.Sender == viewer
}
