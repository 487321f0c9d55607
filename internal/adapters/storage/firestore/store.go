package firestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// Store persists sessions, messages and constitutions in Firestore.
// Conversations are keyed by session code with messages in a subcollection;
// constitutions live in their own top-level collection.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationDoc(code domain.SessionCode) *firestore.DocumentRef {
	return s.conversationsCol().Doc(string(code))
}

func (s *Store) messagesCol(code domain.SessionCode) *firestore.CollectionRef {
	return s.conversationDoc(code).Collection("messages")
}

func (s *Store) constitutionsCol() *firestore.CollectionRef {
	return s.client.Collection("constitutions")
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	ParticipantA      string     `firestore:"participant_a"`
	ParticipantB      string     `firestore:"participant_b"`
	Status            string     `firestore:"status"`
	Mode              string     `firestore:"mode"`
	InteractionLevelA int        `firestore:"interaction_level_a"`
	InteractionLevelB int        `firestore:"interaction_level_b"`
	ConstitutionID    *int64     `firestore:"constitution_id"`
	CreatedAt         time.Time  `firestore:"created_at"`
	EndedAt           *time.Time `firestore:"ended_at"`
}

type messageDoc struct {
	Sender    string    `firestore:"sender"`
	Content   string    `firestore:"content"`
	Kind      string    `firestore:"kind"`
	Fallacy   string    `firestore:"fallacy"`
	Recipient string    `firestore:"recipient"`
	Timestamp time.Time `firestore:"timestamp"`
}

type constitutionDoc struct {
	Title     string    `firestore:"title"`
	Content   string    `firestore:"content"`
	CreatedBy string    `firestore:"created_by"`
	Finalized bool      `firestore:"finalized"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	_, err := s.conversationDoc(conv.SessionCode).Create(ctx, toConversationDoc(conv))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return domain.ErrSessionAlreadyExists
		}
		return fmt.Errorf("firestore CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversation(conv *domain.Conversation) error {
	ctx := context.Background()

	// Set would upsert; check existence first so a missing session is an
	// error here, same as the other backends.
	ref := s.conversationDoc(conv.SessionCode)
	if _, err := ref.Get(ctx); err != nil {
		if notFound(err) {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore UpdateConversation: %w", err)
	}
	if _, err := ref.Set(ctx, toConversationDoc(conv)); err != nil {
		return fmt.Errorf("firestore UpdateConversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(code domain.SessionCode) (*domain.Conversation, error) {
	ctx := context.Background()

	snap, err := s.conversationDoc(code).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConversation decode: %w", err)
	}

	var constID *domain.ConstitutionID
	if doc.ConstitutionID != nil {
		v := domain.ConstitutionID(*doc.ConstitutionID)
		constID = &v
	}
	return &domain.Conversation{
		SessionCode:       code,
		ParticipantA:      doc.ParticipantA,
		ParticipantB:      doc.ParticipantB,
		Status:            domain.Status(doc.Status),
		Mode:              domain.Mode(doc.Mode),
		InteractionLevelA: doc.InteractionLevelA,
		InteractionLevelB: doc.InteractionLevelB,
		ConstitutionID:    constID,
		CreatedAt:         doc.CreatedAt,
		EndedAt:           doc.EndedAt,
	}, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	ctx := context.Background()

	doc := messageDoc{
		Sender:    msg.Sender,
		Content:   msg.Content,
		Kind:      string(msg.Kind),
		Fallacy:   msg.Fallacy,
		Recipient: msg.Recipient,
		Timestamp: msg.Timestamp,
	}

	_, err := s.messagesCol(msg.SessionCode).Doc(string(msg.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(code domain.SessionCode) ([]*domain.Message, error) {
	ctx := context.Background()

	iter := s.messagesCol(code).OrderBy("timestamp", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListMessages decode: %w", err)
		}
		out = append(out, &domain.Message{
			ID:          domain.MessageID(snap.Ref.ID),
			SessionCode: code,
			Sender:      doc.Sender,
			Content:     doc.Content,
			Kind:        domain.MessageKind(doc.Kind),
			Fallacy:     doc.Fallacy,
			Recipient:   doc.Recipient,
			Timestamp:   doc.Timestamp,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// ConstitutionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConstitution(c *domain.Constitution) error {
	ctx := context.Background()

	// Firestore has no auto-increment; a nanosecond id keeps the numeric
	// ConstitutionID contract without a counter document.
	if c.ID == 0 {
		c.ID = domain.ConstitutionID(time.Now().UnixNano())
	}

	_, err := s.constitutionsCol().Doc(constitutionDocID(c.ID)).Create(ctx, toConstitutionDoc(c))
	if err != nil {
		return fmt.Errorf("firestore CreateConstitution: %w", err)
	}
	return nil
}

func (s *Store) UpdateConstitution(c *domain.Constitution) error {
	ctx := context.Background()

	ref := s.constitutionsCol().Doc(constitutionDocID(c.ID))
	if _, err := ref.Get(ctx); err != nil {
		if notFound(err) {
			return domain.ErrConstitutionNotFound
		}
		return fmt.Errorf("firestore UpdateConstitution: %w", err)
	}
	if _, err := ref.Set(ctx, toConstitutionDoc(c)); err != nil {
		return fmt.Errorf("firestore UpdateConstitution: %w", err)
	}
	return nil
}

func (s *Store) GetConstitution(id domain.ConstitutionID) (*domain.Constitution, error) {
	ctx := context.Background()

	snap, err := s.constitutionsCol().Doc(constitutionDocID(id)).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrConstitutionNotFound
		}
		return nil, fmt.Errorf("firestore GetConstitution: %w", err)
	}

	var doc constitutionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConstitution decode: %w", err)
	}
	return fromConstitutionDoc(id, &doc), nil
}

func (s *Store) ListConstitutions() ([]*domain.Constitution, error) {
	ctx := context.Background()

	iter := s.constitutionsCol().OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []*domain.Constitution
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListConstitutions: %w", err)
		}

		var doc constitutionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListConstitutions decode: %w", err)
		}
		id, _ := strconv.ParseInt(snap.Ref.ID, 10, 64)
		out = append(out, fromConstitutionDoc(domain.ConstitutionID(id), &doc))
	}
	return out, nil
}

// ─────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────

func toConversationDoc(conv *domain.Conversation) conversationDoc {
	var constID *int64
	if conv.ConstitutionID != nil {
		v := int64(*conv.ConstitutionID)
		constID = &v
	}
	return conversationDoc{
		ParticipantA:      conv.ParticipantA,
		ParticipantB:      conv.ParticipantB,
		Status:            string(conv.Status),
		Mode:              string(conv.Mode),
		InteractionLevelA: conv.InteractionLevelA,
		InteractionLevelB: conv.InteractionLevelB,
		ConstitutionID:    constID,
		CreatedAt:         conv.CreatedAt,
		EndedAt:           conv.EndedAt,
	}
}

func toConstitutionDoc(c *domain.Constitution) constitutionDoc {
	return constitutionDoc{
		Title:     c.Title,
		Content:   c.Content,
		CreatedBy: c.CreatedBy,
		Finalized: c.Finalized,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func fromConstitutionDoc(id domain.ConstitutionID, doc *constitutionDoc) *domain.Constitution {
	return &domain.Constitution{
		ID:        id,
		Title:     doc.Title,
		Content:   doc.Content,
		CreatedBy: doc.CreatedBy,
		Finalized: doc.Finalized,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func constitutionDocID(id domain.ConstitutionID) string {
	return strconv.FormatInt(int64(id), 10)
}
