package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thereayou/presence-relay/internal/relay"
)

const saveTimeout = 5 * time.Second

// Archiver copies messages into a MessageStore off the dispatcher's path.
// Archive never blocks; messages are dropped when the queue is full.
type Archiver struct {
	store MessageStore
	queue chan relay.Message
	log   *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewArchiver(store MessageStore, queueSize int, log *slog.Logger) *Archiver {
	return &Archiver{
		store: store,
		queue: make(chan relay.Message, queueSize),
		log:   log,
		done:  make(chan struct{}),
	}
}

func (a *Archiver) Archive(msg relay.Message) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- msg:
	default:
		a.log.Warn("Archive queue full, dropping message", "message_id", msg.ID)
	}
}

// Run drains the queue until Stop is called.
func (a *Archiver) Run() {
	defer close(a.done)
	for msg := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := a.store.SaveMessage(ctx, msg); err != nil {
			a.log.Error("Failed to archive message", "message_id", msg.ID, "error", err)
		}
		cancel()
	}
}

// Stop closes the queue and waits for Run to flush it or for ctx to end.
func (a *Archiver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restorer accepts archived messages, oldest first.
type Restorer interface {
	Restore(msgs []relay.Message)
}

// Hydrate loads the archived tail into target so late joiners see history
// after a restart.
func Hydrate(ctx context.Context, store MessageStore, target Restorer, limit int) (int, error) {
	msgs, err := store.RecentMessages(ctx, limit)
	if err != nil {
		return 0, err
	}
	target.Restore(msgs)
	return len(msgs), nil
}
