package relay

import (
	"strings"
	"unicode"
)

// MaxDisplayNameLength is counted in runes.
const MaxDisplayNameLength = 50

// Peer is the already-established channel to one client.
// Deliver must not block: implementations enqueue and return.
type Peer interface {
	ID() string
	Deliver(out Outbound) error
	Close() error
}

// Connection is the registry's view of one live channel. Room membership
// lives in the RoomIndex.
type Connection struct {
	ID          string
	DisplayName string
	peer        Peer
}

func (c Connection) Identified() bool {
	return c.DisplayName != ""
}

// Registry maps connection ids to identity metadata. Not safe for concurrent
// use on its own; the dispatcher serializes access.
type Registry struct {
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

func (r *Registry) Register(id string, peer Peer) error {
	if _, ok := r.conns[id]; ok {
		return ErrAlreadyRegistered
	}
	r.conns[id] = &Connection{ID: id, peer: peer}
	return nil
}

// SetIdentity trims and truncates name before storing it.
func (r *Registry) SetIdentity(id, name string) (string, error) {
	conn, ok := r.conns[id]
	if !ok {
		return "", ErrNotFound
	}
	name, err := normalizeDisplayName(name)
	if err != nil {
		return "", err
	}
	conn.DisplayName = name
	return name, nil
}

func (r *Registry) Get(id string) (Connection, error) {
	conn, ok := r.conns[id]
	if !ok {
		return Connection{}, ErrNotFound
	}
	return *conn, nil
}

func (r *Registry) Unregister(id string) {
	delete(r.conns, id)
}

// AllIdentities returns a snapshot of every identified connection.
func (r *Registry) AllIdentities() []Identity {
	out := make([]Identity, 0, len(r.conns))
	for _, conn := range r.conns {
		if conn.Identified() {
			out = append(out, Identity{ConnectionID: conn.ID, DisplayName: conn.DisplayName})
		}
	}
	return out
}

func (r *Registry) identified() []Connection {
	out := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if conn.Identified() {
			out = append(out, *conn)
		}
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.conns)
}

func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidIdentity
	}
	for _, ch := range name {
		if !unicode.IsPrint(ch) {
			return "", ErrInvalidIdentity
		}
	}
	if runes := []rune(name); len(runes) > MaxDisplayNameLength {
		name = strings.TrimSpace(string(runes[:MaxDisplayNameLength]))
	}
	return name, nil
}
