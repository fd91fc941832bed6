package relay

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	id     string
	mu     sync.Mutex
	got    []Outbound
	closed bool
	fail   error
}

func newFakePeer() *fakePeer {
	return &fakePeer{id: uuid.NewString()}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Deliver(out Outbound) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.got = append(p.got, out)
	return nil
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) received() []Outbound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Outbound(nil), p.got...)
}

func (p *fakePeer) ofType(t EventType) []Outbound {
	return lo.Filter(p.received(), func(out Outbound, _ int) bool {
		return out.Type == t
	})
}

func (p *fakePeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = nil
}

func newTestDispatcher(t *testing.T, opts Options) *Dispatcher {
	t.Helper()
	return NewDispatcher(logs.GetLoggerFromLevel(slog.LevelDebug), opts)
}

// connectAs registers a peer and establishes its identity.
func connectAs(t *testing.T, d *Dispatcher, name, room string) *fakePeer {
	t.Helper()
	req := require.New(t)
	peer := newFakePeer()
	req.NoError(d.Connect(peer))
	ack, acked := d.Handle(peer.ID(), EstablishIdentity{DisplayName: name, Room: room})
	req.True(acked)
	req.True(ack.OK, ack.Error)
	return peer
}
