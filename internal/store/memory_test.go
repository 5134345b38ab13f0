package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulsechat/relay/internal/models"
)

func seedEnvelope(id string, kind models.Kind, convKey string, ts int64) *models.Envelope {
	env := &models.Envelope{
		ID:        id,
		Kind:      kind,
		Sender:    models.Identity{ID: "1", Name: "alice"},
		Text:      "msg " + id,
		Timestamp: ts,
	}
	if kind == models.KindPersonal {
		env.RecipientID = "2"
		env.ConversationKey = convKey
	}
	return env
}

func TestMemoryStore_QueryByKind(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	req.NoError(s.Append(ctx, seedEnvelope("a", models.KindGroup, "", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("b", models.KindPersonal, "1_2", 200)))
	req.NoError(s.Append(ctx, seedEnvelope("c", models.KindGroup, "", 300)))

	group, err := s.QueryByKind(ctx, models.KindGroup, 0)
	req.NoError(err)
	req.Len(group, 2)
	req.Equal("a", group[0].ID)
	req.Equal("c", group[1].ID)

	personal, err := s.QueryByKind(ctx, models.KindPersonal, 0)
	req.NoError(err)
	req.Len(personal, 1)
	req.Equal("b", personal[0].ID)
}

func TestMemoryStore_QueryByConversationKey(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	req.NoError(s.Append(ctx, seedEnvelope("a", models.KindPersonal, "1_2", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("b", models.KindPersonal, "1_3", 200)))
	req.NoError(s.Append(ctx, seedEnvelope("c", models.KindPersonal, "1_2", 300)))
	req.NoError(s.Append(ctx, seedEnvelope("d", models.KindGroup, "", 400)))

	got, err := s.QueryByConversationKey(ctx, "1_2", 0)
	req.NoError(err)
	req.Len(got, 2)
	req.Equal("a", got[0].ID)
	req.Equal("c", got[1].ID)

	empty, err := s.QueryByConversationKey(ctx, "5_9", 0)
	req.NoError(err)
	req.Empty(empty)
}

func TestMemoryStore_QueryConversationKeys(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	// Identity 1 sends to 2 and 3; identity 4 talks to 5; group noise.
	req.NoError(s.Append(ctx, seedEnvelope("a", models.KindPersonal, "1_2", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("b", models.KindPersonal, "1_3", 200)))
	req.NoError(s.Append(ctx, seedEnvelope("c", models.KindPersonal, "1_2", 300)))
	req.NoError(s.Append(ctx, seedEnvelope("d", models.KindGroup, "", 400)))
	other := seedEnvelope("e", models.KindPersonal, "4_5", 500)
	other.Sender.ID = "4"
	other.RecipientID = "5"
	req.NoError(s.Append(ctx, other))

	keys, err := s.QueryConversationKeys(ctx, "1")
	req.NoError(err)
	req.Equal([]string{"1_2", "1_3"}, keys)

	// The recipient side sees the same conversation.
	keys, err = s.QueryConversationKeys(ctx, "2")
	req.NoError(err)
	req.Equal([]string{"1_2"}, keys)

	keys, err = s.QueryConversationKeys(ctx, "9")
	req.NoError(err)
	req.Empty(keys)
}

func TestMemoryStore_OrderedByTimestamp(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	// Appended out of order; queries come back sorted by timestamp.
	req.NoError(s.Append(ctx, seedEnvelope("late", models.KindGroup, "", 300)))
	req.NoError(s.Append(ctx, seedEnvelope("early", models.KindGroup, "", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("mid", models.KindGroup, "", 200)))

	got, err := s.QueryByKind(ctx, models.KindGroup, 0)
	req.NoError(err)
	req.Equal([]string{"early", "mid", "late"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestMemoryStore_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 10; i++ {
		req.NoError(s.Append(ctx, seedEnvelope(fmt.Sprintf("m%02d", i), models.KindGroup, "", int64(i))))
	}

	got, err := s.QueryByKind(ctx, models.KindGroup, 3)
	req.NoError(err)
	req.Len(got, 3)
}

func TestMemoryStore_AppendCopiesEnvelope(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := NewMemoryStore()

	env := seedEnvelope("a", models.KindGroup, "", 100)
	req.NoError(s.Append(ctx, env))
	env.Text = "mutated after append"

	got, err := s.QueryByKind(ctx, models.KindGroup, 0)
	req.NoError(err)
	req.Equal("msg a", got[0].Text)
}
