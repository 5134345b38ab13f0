package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pulsechat/relay/internal/models"
	"github.com/pulsechat/relay/internal/store"
)

// blockingStore lets a test hold the append worker hostage.
type blockingStore struct {
	mu        sync.Mutex
	appends   []string
	gate      chan struct{}
	failFirst bool
}

func (s *blockingStore) Append(ctx context.Context, env *models.Envelope) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst {
		s.failFirst = false
		return errors.New("disk on fire")
	}
	s.appends = append(s.appends, env.ID)
	return nil
}

func (s *blockingStore) QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error) {
	return nil, nil
}

func (s *blockingStore) QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	return nil, nil
}

func (s *blockingStore) QueryConversationKeys(ctx context.Context, identityID string) ([]string, error) {
	return nil, nil
}

func (s *blockingStore) Ping(ctx context.Context) error { return nil }
func (s *blockingStore) Close()                         {}

func (s *blockingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appends)
}

func groupEnvelope(text string) *models.Envelope {
	return &models.Envelope{
		ID:        ulid.Make().String(),
		Kind:      models.KindGroup,
		Sender:    alice,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestPersister_AppendsAsync(t *testing.T) {
	req := require.New(t)
	st := store.NewMemoryStore()
	p := NewPersister(st, zerolog.Nop(), 8)
	defer p.Close()

	p.Dispatch(groupEnvelope("one"))
	p.Dispatch(groupEnvelope("two"))

	req.Eventually(func() bool {
		got, err := st.QueryByKind(context.Background(), models.KindGroup, 0)
		return err == nil && len(got) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPersister_DispatchNeverBlocks(t *testing.T) {
	req := require.New(t)
	st := &blockingStore{gate: make(chan struct{})}
	p := NewPersister(st, zerolog.Nop(), 2)

	// Worker is stuck on the first envelope; two more fill the queue and
	// everything past that is dropped without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			p.Dispatch(groupEnvelope("flood"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a saturated queue")
	}

	close(st.gate)
	p.Close()
	req.LessOrEqual(st.count(), 3)
	req.GreaterOrEqual(st.count(), 1)
}

func TestPersister_CloseDrainsQueue(t *testing.T) {
	req := require.New(t)
	st := &blockingStore{}
	p := NewPersister(st, zerolog.Nop(), 8)

	for i := 0; i < 5; i++ {
		p.Dispatch(groupEnvelope("drain"))
	}
	p.Close()

	req.Equal(5, st.count())
}

func TestPersister_AppendFailureDoesNotStopWorker(t *testing.T) {
	req := require.New(t)
	st := &blockingStore{failFirst: true}
	p := NewPersister(st, zerolog.Nop(), 8)

	p.Dispatch(groupEnvelope("doomed"))
	p.Dispatch(groupEnvelope("survivor"))
	p.Close()

	req.Equal(1, st.count())
}
