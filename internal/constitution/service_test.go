package constitution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-labs/diplomat/internal/adapters/llm"
	memstore "github.com/diplomat-labs/diplomat/internal/adapters/storage/memory"
	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
)

func newFixture(t *testing.T) (*Service, *llm.MockModel) {
	t.Helper()
	store := memstore.NewStore()
	model := llm.NewMockModel()
	engine := mediator.NewEngine(model, store, store, store, nil, mediator.NewPromptBuilder(""), 0)
	return NewService(store, engine, ""), model
}

func TestTemplateDefault(t *testing.T) {
	svc, _ := newFixture(t)
	assert.Contains(t, svc.Template(), "# Our Communication Constitution")
	assert.Contains(t, svc.Template(), "Ground Rules")
}

func TestTemplateOverride(t *testing.T) {
	store := memstore.NewStore()
	svc := NewService(store, nil, "# House Rules\n1. Be kind.")
	assert.Equal(t, "# House Rules\n1. Be kind.", svc.Template())
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Ours", "# Rules\n- be nice", "Alex")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.False(t, c.Finalized)

	got, err := svc.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ours", got.Title)
	assert.Equal(t, "# Rules\n- be nice", got.Content)
}

func TestCreateFromTemplate(t *testing.T) {
	svc, _ := newFixture(t)

	c, err := svc.CreateFromTemplate(context.Background(), "Sam")
	require.NoError(t, err)
	assert.Equal(t, "Our Communication Constitution", c.Title)
	assert.Equal(t, svc.Template(), c.Content)
	assert.Equal(t, "Sam", c.CreatedBy)
}

func TestUpdate(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Ours", "v1", "Alex")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)

	got, err := svc.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestUpdateUnknown(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Update(context.Background(), 9999, "v2")
	assert.ErrorIs(t, err, domain.ErrConstitutionNotFound)
}

func TestFinalize(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Ours", "v1", "Alex")
	require.NoError(t, err)

	final, err := svc.Finalize(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, final.Finalized)
}

func TestList(t *testing.T) {
	svc, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "First", "a", "Alex")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Second", "b", "Sam")
	require.NoError(t, err)

	all, err := svc.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "First", all[0].Title)
	assert.Equal(t, "Second", all[1].Title)
}

func TestSuggest(t *testing.T) {
	svc, model := newFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Ours", "# Rules", "Alex")
	require.NoError(t, err)

	model.Enqueue("# Rules\n- new timeout rule")
	out, err := svc.Suggest(ctx, c.ID, "add a timeout rule")
	require.NoError(t, err)
	assert.Equal(t, "# Rules\n- new timeout rule", out)
}

func TestSuggestUnknown(t *testing.T) {
	svc, _ := newFixture(t)

	_, err := svc.Suggest(context.Background(), 123, "anything")
	assert.ErrorIs(t, err, domain.ErrConstitutionNotFound)
}
