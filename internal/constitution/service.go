package constitution

import (
	"context"
	"strings"
	"time"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
	"github.com/diplomat-labs/diplomat/internal/observability"
)

const defaultTemplate = `# Our Communication Constitution

## Core Principles
1. We assume good intent in each other's words.
2. We speak for ourselves using "I feel..." statements.
3. We listen to understand, not to respond.

## Ground Rules
- No name-calling or personal attacks
- No bringing up past resolved issues
- Either person can call a timeout at any time
- We address one topic at a time

## When Things Escalate
- Take a 5-minute break if either person feels overwhelmed
- Return to the conversation after the break
- Start the return with something you appreciate about the other person
`

// Service manages ground-rules documents. The template text is resolved
// once at process start; the engine only ever sees the final content.
type Service struct {
	store    domain.ConstitutionStore
	engine   *mediator.Engine
	template string
	now      func() time.Time
}

// NewService creates the service. templateText empty means the built-in
// template.
func NewService(store domain.ConstitutionStore, engine *mediator.Engine, templateText string) *Service {
	if strings.TrimSpace(templateText) == "" {
		templateText = defaultTemplate
	}
	return &Service{
		store:    store,
		engine:   engine,
		template: templateText,
		now:      time.Now,
	}
}

// Template returns the default ground-rules text.
func (s *Service) Template() string {
	return s.template
}

// Create stores a custom constitution.
func (s *Service) Create(ctx context.Context, title, content, createdBy string) (*domain.Constitution, error) {
	now := s.now()
	c := &domain.Constitution{
		Title:     title,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConstitution(c); err != nil {
		return nil, err
	}
	observability.LoggerFromContext(ctx).Info("constitution created",
		"constitution_id", c.ID, "created_by", createdBy)
	return c, nil
}

// CreateFromTemplate stores a new constitution seeded from the template.
func (s *Service) CreateFromTemplate(ctx context.Context, createdBy string) (*domain.Constitution, error) {
	return s.Create(ctx, "Our Communication Constitution", s.template, createdBy)
}

// Update replaces the content of an existing constitution.
func (s *Service) Update(ctx context.Context, id domain.ConstitutionID, content string) (*domain.Constitution, error) {
	c, err := s.store.GetConstitution(id)
	if err != nil {
		return nil, err
	}
	c.Content = content
	c.UpdatedAt = s.now()
	if err := s.store.UpdateConstitution(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Finalize marks the document as agreed by both parties.
func (s *Service) Finalize(ctx context.Context, id domain.ConstitutionID) (*domain.Constitution, error) {
	c, err := s.store.GetConstitution(id)
	if err != nil {
		return nil, err
	}
	c.Finalized = true
	c.UpdatedAt = s.now()
	if err := s.store.UpdateConstitution(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(id domain.ConstitutionID) (*domain.Constitution, error) {
	return s.store.GetConstitution(id)
}

func (s *Service) List() ([]*domain.Constitution, error) {
	return s.store.ListConstitutions()
}

// Suggest asks the mediator for an improved version of the document
// incorporating the participants' request.
func (s *Service) Suggest(ctx context.Context, id domain.ConstitutionID, request string) (string, error) {
	c, err := s.store.GetConstitution(id)
	if err != nil {
		return "", err
	}
	return s.engine.SuggestDocument(ctx, c.Content, request), nil
}
