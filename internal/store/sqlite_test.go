package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulsechat/relay/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	env := &models.Envelope{
		ID:   "01HZX0000000000000000000AA",
		Kind: models.KindPersonal,
		Sender: models.Identity{
			ID: "1", Name: "alice", Email: "alice@example.com",
			AvatarURL: "https://cdn.example.com/a.png", Device: "web",
		},
		RecipientID:     "2",
		ConversationKey: "1_2",
		Text:            "see you at 9",
		Attachment: &models.Attachment{
			URL: "https://cdn.example.com/f.pdf", Name: "agenda.pdf",
			Type: "application/pdf", Size: 20480,
		},
		Timestamp: 1700000000000,
	}
	req.NoError(s.Append(ctx, env))

	got, err := s.QueryByConversationKey(ctx, "1_2", 0)
	req.NoError(err)
	req.Len(got, 1)
	req.Equal(*env, got[0])
}

func TestSQLiteStore_NoAttachmentStaysNil(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	req.NoError(s.Append(ctx, seedEnvelope("a", models.KindGroup, "", 100)))

	got, err := s.QueryByKind(ctx, models.KindGroup, 0)
	req.NoError(err)
	req.Len(got, 1)
	req.Nil(got[0].Attachment)
}

func TestSQLiteStore_QueryFiltersAndOrders(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	req.NoError(s.Append(ctx, seedEnvelope("late", models.KindGroup, "", 300)))
	req.NoError(s.Append(ctx, seedEnvelope("early", models.KindGroup, "", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("dm", models.KindPersonal, "1_2", 200)))

	group, err := s.QueryByKind(ctx, models.KindGroup, 0)
	req.NoError(err)
	req.Len(group, 2)
	req.Equal("early", group[0].ID)
	req.Equal("late", group[1].ID)

	conv, err := s.QueryByConversationKey(ctx, "1_2", 0)
	req.NoError(err)
	req.Len(conv, 1)
	req.Equal("dm", conv[0].ID)
}

func TestSQLiteStore_QueryConversationKeys(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	req.NoError(s.Append(ctx, seedEnvelope("a", models.KindPersonal, "1_2", 100)))
	req.NoError(s.Append(ctx, seedEnvelope("b", models.KindPersonal, "1_3", 200)))
	req.NoError(s.Append(ctx, seedEnvelope("c", models.KindPersonal, "1_2", 300)))
	req.NoError(s.Append(ctx, seedEnvelope("d", models.KindGroup, "", 400)))

	keys, err := s.QueryConversationKeys(ctx, "1")
	req.NoError(err)
	req.Equal([]string{"1_2", "1_3"}, keys)

	keys, err = s.QueryConversationKeys(ctx, "2")
	req.NoError(err)
	req.Equal([]string{"1_2"}, keys)

	keys, err = s.QueryConversationKeys(ctx, "9")
	req.NoError(err)
	req.Empty(keys)
}

func TestSQLiteStore_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	for i := 0; i < 5; i++ {
		req.NoError(s.Append(ctx, seedEnvelope(string(rune('a'+i)), models.KindGroup, "", int64(i))))
	}

	got, err := s.QueryByKind(ctx, models.KindGroup, 2)
	req.NoError(err)
	req.Len(got, 2)
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := newTestSQLiteStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
