package mediator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

func testConversation() *domain.Conversation {
	return &domain.Conversation{
		SessionCode:  "ROUTECODE",
		ParticipantA: "Alex",
		ParticipantB: "Sam",
		Status:       domain.StatusActive,
		Mode:         domain.ModeFreeTalk,
	}
}

func TestRoutePublic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := &Decision{Kind: "OBSERVATION", Content: "easy now"}

	target, msg := Route(d, testConversation(), now)

	assert.False(t, target.Private)
	assert.Empty(t, target.Recipient)
	require.NotNil(t, msg)
	assert.Equal(t, domain.DiplomatSender, msg.Sender)
	assert.Equal(t, domain.MessageKind("OBSERVATION"), msg.Kind)
	assert.Empty(t, msg.Recipient)
	assert.Equal(t, now, msg.Timestamp)
	assert.NotEmpty(t, msg.ID)
}

func TestRoutePrivate(t *testing.T) {
	d := &Decision{Kind: "PRIVATE_COACHING", Content: "maybe rephrase that", Recipient: "Sam"}

	target, msg := Route(d, testConversation(), time.Now())

	assert.True(t, target.Private)
	assert.Equal(t, "Sam", target.Recipient)
	assert.Equal(t, "Sam", msg.Recipient)
}

func TestRouteUnknownRecipientFailsOpen(t *testing.T) {
	// The router never synthesizes a recipient outside the session.
	d := &Decision{Kind: "OBSERVATION", Content: "hm", Recipient: "Nobody"}

	target, msg := Route(d, testConversation(), time.Now())

	assert.False(t, target.Private)
	assert.Empty(t, msg.Recipient)
}

func TestRouteCarriesFallacy(t *testing.T) {
	d := &Decision{Kind: "FALLACY_ALERT", Fallacy: "Ad Hominem", Content: "focus on the argument"}

	_, msg := Route(d, testConversation(), time.Now())

	assert.Equal(t, "Ad Hominem", msg.Fallacy)
	assert.Equal(t, domain.MessageKind("FALLACY_ALERT"), msg.Kind)
}
