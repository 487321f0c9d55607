package memory

import (
	"sort"
	"sync"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// Store keeps everything in process memory. One store implements all three
// persistence ports; handy for tests and local development.
type Store struct {
	mu            sync.RWMutex
	conversations map[domain.SessionCode]*domain.Conversation
	messages      map[domain.SessionCode][]*domain.Message
	constitutions map[domain.ConstitutionID]*domain.Constitution
	nextConstID   domain.ConstitutionID
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[domain.SessionCode]*domain.Conversation),
		messages:      make(map[domain.SessionCode][]*domain.Message),
		constitutions: make(map[domain.ConstitutionID]*domain.Constitution),
	}
}

// ─────────────────────────────────────────
// ConversationStore
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.SessionCode]; exists {
		return domain.ErrSessionAlreadyExists
	}
	cp := *conv
	s.conversations[conv.SessionCode] = &cp
	return nil
}

func (s *Store) UpdateConversation(conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.SessionCode]; !exists {
		return domain.ErrSessionNotFound
	}
	cp := *conv
	s.conversations[conv.SessionCode] = &cp
	return nil
}

func (s *Store) GetConversation(code domain.SessionCode) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *conv
	return &cp, nil
}

// ─────────────────────────────────────────
// MessageStore
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	s.messages[msg.SessionCode] = append(s.messages[msg.SessionCode], &cp)

	// Appends normally arrive in order; a stable sort keeps the canonical
	// non-decreasing timestamp order even when concurrent analyses land
	// out of trigger order.
	msgs := s.messages[msg.SessionCode]
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return nil
}

func (s *Store) ListMessages(code domain.SessionCode) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[code]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ─────────────────────────────────────────
// ConstitutionStore
// ─────────────────────────────────────────

func (s *Store) CreateConstitution(c *domain.Constitution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConstID++
	c.ID = s.nextConstID
	cp := *c
	s.constitutions[c.ID] = &cp
	return nil
}

func (s *Store) UpdateConstitution(c *domain.Constitution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.constitutions[c.ID]; !exists {
		return domain.ErrConstitutionNotFound
	}
	cp := *c
	s.constitutions[c.ID] = &cp
	return nil
}

func (s *Store) GetConstitution(id domain.ConstitutionID) (*domain.Constitution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.constitutions[id]
	if !ok {
		return nil, domain.ErrConstitutionNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListConstitutions() ([]*domain.Constitution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Constitution, 0, len(s.constitutions))
	for _, c := range s.constitutions {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
