package mediator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/diplomat-labs/diplomat/internal/adapters/storage/memory"
	"github.com/diplomat-labs/diplomat/internal/domain"
)

// stubModel answers with a function so tests can script completions,
// failures and artificial latency.
type stubModel struct {
	fn func(prompt string) (string, error)
}

func (s *stubModel) Generate(ctx context.Context, prompt string) (string, error) {
	return s.fn(prompt)
}

// recordingTransport captures deliveries and signals each one.
type recordingTransport struct {
	mu         sync.Mutex
	broadcasts []domain.ChatEvent
	privates   map[string][]domain.ChatEvent
	delivered  chan struct{}
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		privates:  make(map[string][]domain.ChatEvent),
		delivered: make(chan struct{}, 64),
	}
}

func (r *recordingTransport) Broadcast(code domain.SessionCode, ev domain.ChatEvent) {
	r.mu.Lock()
	r.broadcasts = append(r.broadcasts, ev)
	r.mu.Unlock()
	r.delivered <- struct{}{}
}

func (r *recordingTransport) SendPrivate(code domain.SessionCode, participant string, ev domain.ChatEvent) {
	r.mu.Lock()
	r.privates[participant] = append(r.privates[participant], ev)
	r.mu.Unlock()
	r.delivered <- struct{}{}
}

func (r *recordingTransport) waitDeliveries(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func newEngineFixture(t *testing.T, model domain.ChatModel) (*Engine, *memstore.Store, *recordingTransport, *domain.Conversation) {
	t.Helper()
	store := memstore.NewStore()
	transport := newRecordingTransport()

	conv := &domain.Conversation{
		SessionCode:       "ENGCODE1",
		ParticipantA:      "Alex",
		ParticipantB:      "Sam",
		Status:            domain.StatusActive,
		Mode:              domain.ModeFreeTalk,
		InteractionLevelA: 5,
		InteractionLevelB: 5,
		CreatedAt:         time.Now(),
	}
	require.NoError(t, store.CreateConversation(conv))

	engine := NewEngine(model, store, store, store, transport, NewPromptBuilder(""), 0)
	return engine, store, transport, conv
}

func TestTriggerAnalysisDeliversPublicIntervention(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "[TYPE: OBSERVATION]\n[FALLACY: NONE]\n[VISIBILITY: PUBLIC]\n[RESPONSE: Take a breath, both of you.]", nil
	}}
	engine, store, transport, conv := newEngineFixture(t, model)

	engine.TriggerAnalysis(conv.SessionCode, "Alex", "you never listen!")
	transport.waitDeliveries(t, 1)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.broadcasts, 1)
	ev := transport.broadcasts[0]
	assert.Equal(t, domain.DiplomatSender, ev.Sender)
	assert.Equal(t, "OBSERVATION", ev.Type)
	assert.Equal(t, "Take a breath, both of you.", ev.Content)
	assert.Empty(t, transport.privates)

	msgs, err := store.ListMessages(conv.SessionCode)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Recipient)
}

func TestTriggerAnalysisDeliversPrivateOnlyToRecipient(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "[TYPE: PRIVATE_COACHING]\n[VISIBILITY: PRIVATE_TO_Sam]\n[RESPONSE: That might land badly — try an I-statement.]", nil
	}}
	engine, store, transport, conv := newEngineFixture(t, model)

	engine.TriggerAnalysis(conv.SessionCode, "Sam", "whatever, fine")
	transport.waitDeliveries(t, 1)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	assert.Empty(t, transport.broadcasts)
	assert.Empty(t, transport.privates["Alex"])
	require.Len(t, transport.privates["Sam"], 1)
	assert.Equal(t, "Sam", transport.privates["Sam"][0].Recipient)

	msgs, err := store.ListMessages(conv.SessionCode)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Sam", msgs[0].Recipient)
}

func TestTriggerAnalysisNoIntervention(t *testing.T) {
	called := make(chan struct{}, 1)
	model := &stubModel{fn: func(prompt string) (string, error) {
		called <- struct{}{}
		return "[NO_INTERVENTION]", nil
	}}
	engine, store, transport, conv := newEngineFixture(t, model)

	engine.TriggerAnalysis(conv.SessionCode, "Alex", "nice weather")

	<-called
	time.Sleep(100 * time.Millisecond)

	transport.mu.Lock()
	assert.Empty(t, transport.broadcasts)
	assert.Empty(t, transport.privates)
	transport.mu.Unlock()

	msgs, err := store.ListMessages(conv.SessionCode)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTriggerAnalysisModelFailureIsSuppressed(t *testing.T) {
	called := make(chan struct{}, 1)
	model := &stubModel{fn: func(prompt string) (string, error) {
		called <- struct{}{}
		return "", errors.New("model timeout")
	}}
	engine, store, transport, conv := newEngineFixture(t, model)

	engine.TriggerAnalysis(conv.SessionCode, "Alex", "hello?")

	<-called
	time.Sleep(100 * time.Millisecond)

	transport.mu.Lock()
	assert.Empty(t, transport.broadcasts)
	transport.mu.Unlock()

	msgs, err := store.ListMessages(conv.SessionCode)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTriggerAnalysisUnknownSession(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		t.Error("model must not be called for an unknown session")
		return "", nil
	}}
	engine, _, transport, _ := newEngineFixture(t, model)

	engine.TriggerAnalysis("NOPE0000", "Alex", "hi")
	time.Sleep(100 * time.Millisecond)

	transport.mu.Lock()
	assert.Empty(t, transport.broadcasts)
	transport.mu.Unlock()
}

func TestAnalysisPromptCarriesContext(t *testing.T) {
	var captured string
	called := make(chan struct{}, 1)
	model := &stubModel{fn: func(prompt string) (string, error) {
		captured = prompt
		called <- struct{}{}
		return "[NO_INTERVENTION]", nil
	}}
	engine, store, _, conv := newEngineFixture(t, model)

	conv.InteractionLevelB = 9
	require.NoError(t, store.UpdateConversation(conv))

	engine.TriggerAnalysis(conv.SessionCode, "Alex", "I'm frustrated")
	<-called

	assert.Contains(t, captured, "Person A: Alex")
	assert.Contains(t, captured, "Person B: Sam")
	assert.Contains(t, captured, "FREE_TALK")
	// effective level is the max of the two preferences
	assert.Contains(t, captured, "VERY DIRECTIVE (9/10)")
	assert.Contains(t, captured, "(conversation just started)")
	assert.Contains(t, captured, "Alex: I'm frustrated")
	assert.Contains(t, captured, "[NO_INTERVENTION]")
}

func TestConcurrentAnalysesDeliverInCompletionOrder(t *testing.T) {
	// Two events for the same session run unserialized: a slow first call
	// finishing after a fast second one delivers second. That is accepted
	// behavior, not a bug.
	model := &stubModel{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "slow-trigger") {
			time.Sleep(150 * time.Millisecond)
			return "[RESPONSE: about the slow one]", nil
		}
		return "[RESPONSE: about the fast one]", nil
	}}
	engine, _, transport, conv := newEngineFixture(t, model)

	engine.TriggerAnalysis(conv.SessionCode, "Alex", "slow-trigger")
	time.Sleep(10 * time.Millisecond)
	engine.TriggerAnalysis(conv.SessionCode, "Sam", "fast-trigger")

	transport.waitDeliveries(t, 2)

	transport.mu.Lock()
	defer transport.mu.Unlock()
	require.Len(t, transport.broadcasts, 2)
	assert.Equal(t, "about the fast one", transport.broadcasts[0].Content)
	assert.Equal(t, "about the slow one", transport.broadcasts[1].Content)
}

func TestPrivateCoachApologizesOnModelFailure(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "", errors.New("connection refused")
	}}
	engine, _, _, conv := newEngineFixture(t, model)

	resp, err := engine.PrivateCoach(context.Background(), conv.SessionCode, "Alex", "help me phrase this")
	require.NoError(t, err)
	assert.Equal(t, domain.KindPrivateCoaching, resp.Kind)
	assert.Equal(t, "Alex", resp.Recipient)
	assert.Equal(t, coachingApology, resp.Content)
}

func TestPrivateCoachContextExcludesOtherChannel(t *testing.T) {
	var captured string
	model := &stubModel{fn: func(prompt string) (string, error) {
		captured = prompt
		return "You're doing fine.", nil
	}}
	engine, store, _, conv := newEngineFixture(t, model)

	base := time.Now()
	msgs := []*domain.Message{
		{ID: "1", Sender: "Alex", Content: "shared words", Kind: domain.KindChat, Timestamp: base},
		{ID: "2", Sender: "Sam", Content: "sam secret", Kind: domain.KindPrivate, Recipient: "Sam", Timestamp: base.Add(time.Second)},
		{ID: "3", Sender: "Alex", Content: "alex secret", Kind: domain.KindPrivate, Recipient: "Alex", Timestamp: base.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		m.SessionCode = conv.SessionCode
		require.NoError(t, store.AppendMessage(m))
	}

	resp, err := engine.PrivateCoach(context.Background(), conv.SessionCode, "Alex", "am I ok?")
	require.NoError(t, err)
	assert.Equal(t, "You're doing fine.", resp.Content)

	assert.Contains(t, captured, "shared words")
	assert.Contains(t, captured, "alex secret")
	assert.NotContains(t, captured, "sam secret")
	assert.Contains(t, captured, "Sam") // the other participant is named
}

func TestDebriefApologizesOnModelFailure(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "", errors.New("boom")
	}}
	engine, _, _, conv := newEngineFixture(t, model)

	resp, err := engine.Debrief(context.Background(), conv.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSummary, resp.Kind)
	assert.Equal(t, debriefApology, resp.Content)
}

func TestDebriefUnknownSessionIsHardError(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) { return "summary", nil }}
	engine, _, _, _ := newEngineFixture(t, model)

	_, err := engine.Debrief(context.Background(), "MISSING1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestTranslate(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return `What Alex might be trying to say is: "I feel unheard."`, nil
	}}
	engine, _, _, conv := newEngineFixture(t, model)

	resp, err := engine.Translate(context.Background(), conv.SessionCode, "Alex", "you never listen")
	require.NoError(t, err)
	assert.Equal(t, domain.KindTranslation, resp.Kind)
	assert.Contains(t, resp.Content, "I feel unheard")
}

func TestTranslateApologizesOnModelFailure(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "", errors.New("boom")
	}}
	engine, _, _, conv := newEngineFixture(t, model)

	resp, err := engine.Translate(context.Background(), conv.SessionCode, "Alex", "whatever")
	require.NoError(t, err)
	assert.Equal(t, translationApology, resp.Content)
}

func TestSuggestDocument(t *testing.T) {
	model := &stubModel{fn: func(prompt string) (string, error) {
		return "# Updated Constitution", nil
	}}
	engine, _, _, _ := newEngineFixture(t, model)

	out := engine.SuggestDocument(context.Background(), "# Old", "add a timeout rule")
	assert.Equal(t, "# Updated Constitution", out)

	model.fn = func(prompt string) (string, error) { return "", errors.New("down") }
	assert.Equal(t, suggestionApology, engine.SuggestDocument(context.Background(), "# Old", "again"))
}
