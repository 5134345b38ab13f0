// Package store persists message envelopes. The routing core treats it as
// an external append-only log: appends are dispatched fire-and-forget and
// never block delivery.
package store

import (
	"context"

	"github.com/pulsechat/relay/internal/models"
)

// MessageStore is the append-only log the router writes envelopes to.
// PostgresStore, SQLiteStore, RedisStore and MemoryStore implement it.
type MessageStore interface {
	// Append stores an envelope. Envelopes are immutable once written;
	// retention is the store's own policy.
	Append(ctx context.Context, env *models.Envelope) error

	// QueryByKind returns up to limit envelopes of the given kind in
	// ascending timestamp order.
	QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error)

	// QueryByConversationKey returns up to limit envelopes of a personal
	// conversation in ascending timestamp order.
	QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error)

	// QueryConversationKeys returns the distinct conversation keys the
	// identity participates in, sorted.
	QueryConversationKeys(ctx context.Context, identityID string) ([]string, error)

	// Connection management
	Ping(ctx context.Context) error
	Close()
}

// DefaultQueryLimit caps history reads when the caller does not say.
const DefaultQueryLimit = 100
