package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-labs/diplomat/internal/domain"
)

func TestConversationLifecycle(t *testing.T) {
	store := NewStore()
	conv := &domain.Conversation{
		SessionCode:  "MEMCODE1",
		ParticipantA: "Alex",
		Status:       domain.StatusWaiting,
	}

	require.NoError(t, store.CreateConversation(conv))
	assert.ErrorIs(t, store.CreateConversation(conv), domain.ErrSessionAlreadyExists)

	got, err := store.GetConversation("MEMCODE1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", got.ParticipantA)

	// the store hands out copies, not its internal pointer
	got.ParticipantA = "Mallory"
	again, err := store.GetConversation("MEMCODE1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", again.ParticipantA)

	conv.Status = domain.StatusActive
	require.NoError(t, store.UpdateConversation(conv))
	updated, err := store.GetConversation("MEMCODE1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, updated.Status)

	_, err = store.GetConversation("MISSING1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.UpdateConversation(&domain.Conversation{SessionCode: "MISSING1"}), domain.ErrSessionNotFound)
}

func TestMessagesKeepTimestampOrder(t *testing.T) {
	store := NewStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// appended out of order, listed in timestamp order
	for _, offset := range []int{3, 1, 4, 0, 2} {
		require.NoError(t, store.AppendMessage(&domain.Message{
			ID:          domain.MessageID(fmt.Sprintf("m%d", offset)),
			SessionCode: "MEMCODE1",
			Sender:      "Alex",
			Content:     fmt.Sprintf("msg-%d", offset),
			Timestamp:   base.Add(time.Duration(offset) * time.Second),
		}))
	}

	msgs, err := store.ListMessages("MEMCODE1")
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), m.Content)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := NewStore()
	base := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AppendMessage(&domain.Message{
				ID:          domain.MessageID(fmt.Sprintf("m%d", i)),
				SessionCode: "MEMCODE1",
				Timestamp:   base.Add(time.Duration(i) * time.Millisecond),
			})
		}(i)
	}
	wg.Wait()

	msgs, err := store.ListMessages("MEMCODE1")
	require.NoError(t, err)
	require.Len(t, msgs, 50)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp),
			"timestamps must be non-decreasing at index %d", i)
	}
}

func TestConstitutionIDsAutoIncrement(t *testing.T) {
	store := NewStore()

	a := &domain.Constitution{Title: "first"}
	b := &domain.Constitution{Title: "second"}
	require.NoError(t, store.CreateConstitution(a))
	require.NoError(t, store.CreateConstitution(b))
	assert.Equal(t, domain.ConstitutionID(1), a.ID)
	assert.Equal(t, domain.ConstitutionID(2), b.ID)

	all, err := store.ListConstitutions()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)

	_, err = store.GetConstitution(99)
	assert.ErrorIs(t, err, domain.ErrConstitutionNotFound)
	assert.ErrorIs(t, store.UpdateConstitution(&domain.Constitution{ID: 99}), domain.ErrConstitutionNotFound)
}
