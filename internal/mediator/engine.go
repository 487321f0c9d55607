package mediator

import (
	"context"
	"fmt"
	"time"

	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/observability"
)

// Fixed fallbacks for direct-request flows when the model call fails. The
// caller always receives a well-formed response of the right kind.
const (
	coachingApology    = "Sorry, I'm having trouble responding right now. Try again in a moment."
	debriefApology     = "I wasn't able to generate a debrief at this time."
	translationApology = "Sorry, I couldn't translate that right now."
	suggestionApology  = "I couldn't come up with a suggestion right now. Try again in a moment."
)

// Response is the result of a direct request to the mediator (coaching,
// debrief, translation). Unlike background analysis these always produce a
// response object, degrading to an apology on model failure.
type Response struct {
	Sender    string
	Content   string
	Kind      domain.MessageKind
	Fallacy   string
	Recipient string // set for private coaching
	Timestamp time.Time
}

// Engine orchestrates the analysis pipeline: assemble context, prompt the
// model, parse the judgment, route and deliver it.
type Engine struct {
	model         domain.ChatModel
	conversations domain.ConversationStore
	messages      domain.MessageStore
	transport     domain.Transport
	constitutions domain.ConstitutionStore
	prompts       *PromptBuilder
	assembler     *ContextAssembler
	now           func() time.Time
}

func NewEngine(
	model domain.ChatModel,
	conversations domain.ConversationStore,
	messages domain.MessageStore,
	constitutions domain.ConstitutionStore,
	transport domain.Transport,
	prompts *PromptBuilder,
	contextWindow int,
) *Engine {
	return &Engine{
		model:         model,
		conversations: conversations,
		messages:      messages,
		constitutions: constitutions,
		transport:     transport,
		prompts:       prompts,
		assembler:     NewContextAssembler(messages, contextWindow),
		now:           time.Now,
	}
}

// TriggerAnalysis launches one independent, unordered unit of work for a
// triggering message. Units of work are not tracked or cancellable and are
// not serialized per session: two events for the same session may run and
// deliver in completion order rather than trigger order. A failed or empty
// result is dropped, never retried.
func (e *Engine) TriggerAnalysis(code domain.SessionCode, sender, content string) {
	go func() {
		ctx := observability.WithSessionCode(context.Background(), string(code))
		log := observability.LoggerFromContext(ctx)

		msg, target, err := e.analyzeAndRoute(ctx, code, sender, content)
		if err != nil {
			log.Error("analysis suppressed", "error", err)
			return
		}
		if msg == nil {
			log.Info("no intervention needed")
			return
		}

		// Best-effort persistence ordering: append before delivery, but
		// delivery is not rolled back if the append fails.
		if err := e.messages.AppendMessage(msg); err != nil {
			log.Error("failed to persist intervention", "error", err)
		}

		e.deliver(code, target, msg)
		log.Info("intervention delivered",
			"kind", msg.Kind, "private", target.Private)
	}()
}

// analyzeAndRoute runs the synchronous part of the pipeline once. Returns
// (nil, _, nil) when the mediator chose not to intervene, a normal and
// frequent outcome rather than an error.
func (e *Engine) analyzeAndRoute(ctx context.Context, code domain.SessionCode, sender, content string) (*domain.Message, Target, error) {
	conv, err := e.conversations.GetConversation(code)
	if err != nil {
		return nil, Target{}, err
	}

	window, err := e.assembler.Window(code, "")
	if err != nil {
		return nil, Target{}, fmt.Errorf("assembling context: %w", err)
	}

	prompt := e.prompts.Analysis(AnalysisInput{
		Constitution: e.constitutionText(conv),
		ParticipantA: conv.ParticipantA,
		ParticipantB: conv.ParticipantB,
		Mode:         conv.Mode,
		Level:        EffectiveLevel(conv.InteractionLevelA, conv.InteractionLevelB),
		History:      FormatHistory(window),
		Sender:       sender,
		NewMessage:   content,
	})

	raw, err := e.model.Generate(ctx, prompt)
	if err != nil {
		// Background analysis degrades to "no intervention produced".
		return nil, Target{}, fmt.Errorf("model call failed: %w", err)
	}

	decision := ParseDecision(raw, conv.ParticipantA, conv.ParticipantB)
	if decision == nil {
		return nil, Target{}, nil
	}

	target, msg := Route(decision, conv, e.now())
	return msg, target, nil
}

// PrivateCoach answers a participant's private message to the mediator.
// Context is the participant's own view of the conversation: shared
// messages plus their private channel, never the other side's.
func (e *Engine) PrivateCoach(ctx context.Context, code domain.SessionCode, participant, message string) (*Response, error) {
	conv, err := e.conversations.GetConversation(code)
	if err != nil {
		return nil, err
	}

	window, err := e.assembler.Window(code, participant)
	if err != nil {
		return nil, fmt.Errorf("assembling context: %w", err)
	}

	prompt := e.prompts.PrivateCoaching(CoachingInput{
		Participant:      participant,
		OtherParticipant: conv.OtherParticipant(participant),
		Constitution:     e.constitutionText(conv),
		History:          FormatHistory(window),
		Message:          message,
	})

	content, err := e.model.Generate(ctx, prompt)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("private coaching failed",
			"participant", participant, "error", err)
		content = coachingApology
	}

	return &Response{
		Sender:    domain.DiplomatSender,
		Content:   content,
		Kind:      domain.KindPrivateCoaching,
		Recipient: participant,
		Timestamp: e.now(),
	}, nil
}

// Debrief summarizes the whole conversation, private exchanges included.
func (e *Engine) Debrief(ctx context.Context, code domain.SessionCode) (*Response, error) {
	if _, err := e.conversations.GetConversation(code); err != nil {
		return nil, err
	}

	history, err := e.assembler.FullHistory(code)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	content, err := e.model.Generate(ctx, e.prompts.Debrief(FormatHistory(history)))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("debrief failed", "error", err)
		content = debriefApology
	}

	return &Response{
		Sender:    domain.DiplomatSender,
		Content:   content,
		Kind:      domain.KindSummary,
		Timestamp: e.now(),
	}, nil
}

// Translate rephrases a participant's statement to surface the underlying
// feeling and need.
func (e *Engine) Translate(ctx context.Context, code domain.SessionCode, originalSender, content string) (*Response, error) {
	if _, err := e.conversations.GetConversation(code); err != nil {
		return nil, err
	}

	translated, err := e.model.Generate(ctx, e.prompts.Translation(originalSender, content))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("translation failed", "error", err)
		translated = translationApology
	}

	return &Response{
		Sender:    domain.DiplomatSender,
		Content:   translated,
		Kind:      domain.KindTranslation,
		Timestamp: e.now(),
	}, nil
}

// SuggestDocument proposes an updated ground-rules document incorporating a
// participant request. Degrades to an apology on model failure.
func (e *Engine) SuggestDocument(ctx context.Context, current, request string) string {
	suggestion, err := e.model.Generate(ctx, e.prompts.DocumentSuggestion(current, request))
	if err != nil {
		observability.LoggerFromContext(ctx).Error("document suggestion failed", "error", err)
		return suggestionApology
	}
	return suggestion
}

func (e *Engine) deliver(code domain.SessionCode, target Target, msg *domain.Message) {
	if e.transport == nil {
		return
	}
	ev := Event(msg)
	if target.Private {
		e.transport.SendPrivate(code, target.Recipient, ev)
		return
	}
	e.transport.Broadcast(code, ev)
}

func (e *Engine) constitutionText(conv *domain.Conversation) string {
	if conv.ConstitutionID == nil || e.constitutions == nil {
		return ""
	}
	c, err := e.constitutions.GetConstitution(*conv.ConstitutionID)
	if err != nil {
		return ""
	}
	return c.Content
}
