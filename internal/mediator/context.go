package mediator

import (
	"fmt"
	"strings"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

// DefaultContextWindow is the number of trailing messages handed to the
// model as conversation context.
const DefaultContextWindow = 30

// ContextAssembler produces the ordered, visibility-filtered message window
// used as model context.
type ContextAssembler struct {
	messages domain.MessageStore
	limit    int
}

func NewContextAssembler(messages domain.MessageStore, limit int) *ContextAssembler {
	if limit <= 0 {
		limit = DefaultContextWindow
	}
	return &ContextAssembler{messages: messages, limit: limit}
}

// Window returns the last messages of the session in chronological order.
// With a viewer it keeps only what that participant may see: public
// messages, messages addressed to them, and their own private messages.
// With an empty viewer the history is used unfiltered, the "observe
// everything" flow used by ongoing analysis and debriefs.
func (a *ContextAssembler) Window(code domain.SessionCode, viewer string) ([]*domain.Message, error) {
	return a.window(code, viewer, a.limit)
}

// FullHistory returns the entire unfiltered timeline, for the debrief flow.
func (a *ContextAssembler) FullHistory(code domain.SessionCode) ([]*domain.Message, error) {
	return a.window(code, "", 0)
}

func (a *ContextAssembler) window(code domain.SessionCode, viewer string, limit int) ([]*domain.Message, error) {
	all, err := a.messages.ListMessages(code)
	if err != nil {
		return nil, err
	}

	msgs := all
	if viewer != "" {
		msgs = make([]*domain.Message, 0, len(all))
		for _, m := range all {
			if m.VisibleTo(viewer) {
				msgs = append(msgs, m)
			}
		}
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// FormatHistory renders a message window as prompt text, one line per
// message. Empty windows render as an explicit placeholder so the prompt
// structure stays stable.
func FormatHistory(msgs []*domain.Message) string {
	if len(msgs) == 0 {
		return "(conversation just started)"
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("%s [%s]: %s", m.Sender, m.Kind, m.Content))
	}
	return strings.Join(lines, "\n")
}
