package sqlite

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// Store persists sessions, messages and constitutions in SQLite via gorm.
// Writes are serialized by the database, not by the core.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db.Exec("PRAGMA foreign_keys = ON;")
	db.Exec("PRAGMA journal_mode = WAL;")

	if err := db.AutoMigrate(&conversationRow{}, &messageRow{}, &constitutionRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// ─────────────────────────────────────────
// Rows
// ─────────────────────────────────────────

type conversationRow struct {
	SessionCode       string `gorm:"primaryKey"`
	ParticipantA      string `gorm:"not null"`
	ParticipantB      string
	Status            string `gorm:"not null"`
	Mode              string `gorm:"not null"`
	InteractionLevelA int    `gorm:"not null;default:5"`
	InteractionLevelB int    `gorm:"not null;default:5"`
	ConstitutionID    *int64
	CreatedAt         time.Time `gorm:"not null"`
	EndedAt           *time.Time
}

func (conversationRow) TableName() string { return "conversations" }

type messageRow struct {
	ID          string `gorm:"primaryKey"`
	SessionCode string `gorm:"index;not null"`
	Sender      string `gorm:"not null"`
	Content     string `gorm:"not null"`
	Kind        string `gorm:"not null"`
	Fallacy     string
	Recipient   string
	Timestamp   time.Time `gorm:"index;not null"`
}

func (messageRow) TableName() string { return "messages" }

type constitutionRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedBy string `gorm:"not null"`
	Finalized bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (constitutionRow) TableName() string { return "constitutions" }

// ─────────────────────────────────────────
// ConversationStore
// ─────────────────────────────────────────

func (s *Store) CreateConversation(conv *domain.Conversation) error {
	row := toConversationRow(conv)
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("sqlite CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversation(conv *domain.Conversation) error {
	row := toConversationRow(conv)
	res := s.db.Model(&conversationRow{}).
		Where("session_code = ?", row.SessionCode).
		Select("*").Omit("session_code", "created_at").
		Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("sqlite UpdateConversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) GetConversation(code domain.SessionCode) (*domain.Conversation, error) {
	var row conversationRow
	err := s.db.First(&row, "session_code = ?", string(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite GetConversation: %w", err)
	}
	return fromConversationRow(&row), nil
}

// ─────────────────────────────────────────
// MessageStore
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	row := messageRow{
		ID:          string(msg.ID),
		SessionCode: string(msg.SessionCode),
		Sender:      msg.Sender,
		Content:     msg.Content,
		Kind:        string(msg.Kind),
		Fallacy:     msg.Fallacy,
		Recipient:   msg.Recipient,
		Timestamp:   msg.Timestamp,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("sqlite AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(code domain.SessionCode) ([]*domain.Message, error) {
	var rows []messageRow
	err := s.db.Where("session_code = ?", string(code)).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite ListMessages: %w", err)
	}

	out := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		r := rows[i]
		out = append(out, &domain.Message{
			ID:          domain.MessageID(r.ID),
			SessionCode: domain.SessionCode(r.SessionCode),
			Sender:      r.Sender,
			Content:     r.Content,
			Kind:        domain.MessageKind(r.Kind),
			Fallacy:     r.Fallacy,
			Recipient:   r.Recipient,
			Timestamp:   r.Timestamp,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// ConstitutionStore
// ─────────────────────────────────────────

func (s *Store) CreateConstitution(c *domain.Constitution) error {
	row := constitutionRow{
		Title:     c.Title,
		Content:   c.Content,
		CreatedBy: c.CreatedBy,
		Finalized: c.Finalized,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("sqlite CreateConstitution: %w", err)
	}
	c.ID = domain.ConstitutionID(row.ID)
	return nil
}

func (s *Store) UpdateConstitution(c *domain.Constitution) error {
	res := s.db.Model(&constitutionRow{}).
		Where("id = ?", int64(c.ID)).
		Updates(map[string]any{
			"title":      c.Title,
			"content":    c.Content,
			"finalized":  c.Finalized,
			"updated_at": c.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("sqlite UpdateConstitution: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConstitutionNotFound
	}
	return nil
}

func (s *Store) GetConstitution(id domain.ConstitutionID) (*domain.Constitution, error) {
	var row constitutionRow
	err := s.db.First(&row, "id = ?", int64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrConstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite GetConstitution: %w", err)
	}
	return fromConstitutionRow(&row), nil
}

func (s *Store) ListConstitutions() ([]*domain.Constitution, error) {
	var rows []constitutionRow
	if err := s.db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlite ListConstitutions: %w", err)
	}
	out := make([]*domain.Constitution, 0, len(rows))
	for i := range rows {
		out = append(out, fromConstitutionRow(&rows[i]))
	}
	return out, nil
}

// ─────────────────────────────────────────
// Mapping helpers
// ─────────────────────────────────────────

func toConversationRow(conv *domain.Conversation) conversationRow {
	var constID *int64
	if conv.ConstitutionID != nil {
		v := int64(*conv.ConstitutionID)
		constID = &v
	}
	return conversationRow{
		SessionCode:       string(conv.SessionCode),
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

func fromConversationRow(row *conversationRow) *domain.Conversation {
	var constID *domain.ConstitutionID
	if row.ConstitutionID != nil {
		v := domain.ConstitutionID(*row.ConstitutionID)
		constID = &v
	}
	return &domain.Conversation{
		SessionCode:       domain.SessionCode(row.SessionCode),
		ParticipantA:      row.ParticipantA,
		ParticipantB:      row.ParticipantB,
		Status:            domain.Status(row.Status),
		Mode:              domain.Mode(row.Mode),
		InteractionLevelA: row.InteractionLevelA,
		InteractionLevelB: row.InteractionLevelB,
		ConstitutionID:    constID,
		CreatedAt:         row.CreatedAt,
		EndedAt:           row.EndedAt,
	}
}

func fromConstitutionRow(row *constitutionRow) *domain.Constitution {
	return &domain.Constitution{
		ID:        domain.ConstitutionID(row.ID),
		Title:     row.Title,
		Content:   row.Content,
		CreatedBy: row.CreatedBy,
		Finalized: row.Finalized,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
