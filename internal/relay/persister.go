package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/metrics"
	"github.com/pulsechat/relay/internal/models"
	"github.com/pulsechat/relay/internal/store"
)

const appendTimeout = 5 * time.Second

// Persister hands envelopes to the message store without ever blocking the
// routing path. Appends run on a background goroutine; failures only touch
// logs and metrics. Real-time delivery must not wait on durability.
type Persister struct {
	store store.MessageStore
	log   zerolog.Logger

	queue     chan *models.Envelope
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPersister starts the background append worker. depth bounds the
// in-flight queue; once full, further envelopes are dropped loudly.
func NewPersister(st store.MessageStore, logger zerolog.Logger, depth int) *Persister {
	if depth <= 0 {
		depth = 256
	}
	p := &Persister{
		store: st,
		log:   logger,
		queue: make(chan *models.Envelope, depth),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *Persister) run() {
	defer p.wg.Done()
	for env := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := p.store.Append(ctx, env); err != nil {
			metrics.StoreAppendFailures.Inc()
			p.log.Error().
				Err(err).
				Str("message_id", env.ID).
				Str("kind", string(env.Kind)).
				Msg("message persistence failed")
		}
		cancel()
	}
}

// Dispatch enqueues an envelope for persistence and returns immediately.
// A saturated queue drops the envelope; durability is best-effort.
func (p *Persister) Dispatch(env *models.Envelope) {
	select {
	case p.queue <- env:
	default:
		metrics.PersistQueueDrops.Inc()
		p.log.Error().
			Str("message_id", env.ID).
			Str("kind", string(env.Kind)).
			Msg("persistence queue full, dropping envelope")
	}
}

// Close drains the queue and stops the worker. Safe to call twice.
func (p *Persister) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
}
