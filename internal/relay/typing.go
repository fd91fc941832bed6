package relay

import (
	"sort"

	"github.com/samber/lo"
)

type typingEntry struct {
	room string
	seq  uint64
}

// TypingTracker holds connections currently typing. Absence means not typing.
// It reads the registry and room index to resolve names and room scopes.
type TypingTracker struct {
	entries  map[string]typingEntry
	seq      uint64
	registry *Registry
	rooms    *RoomIndex
}

func NewTypingTracker(registry *Registry, rooms *RoomIndex) *TypingTracker {
	return &TypingTracker{
		entries:  make(map[string]typingEntry),
		registry: registry,
		rooms:    rooms,
	}
}

func (t *TypingTracker) SetTyping(id string, isTyping bool, room string) {
	if !isTyping {
		delete(t.entries, id)
		return
	}
	if entry, ok := t.entries[id]; ok && entry.room == room {
		return
	}
	t.seq++
	t.entries[id] = typingEntry{room: room, seq: t.seq}
}

// Scope returns the room id is typing in; "" means global.
func (t *TypingTracker) Scope(id string) (string, bool) {
	entry, ok := t.entries[id]
	return entry.room, ok
}

// Clear removes id and returns the room scope it was typing in.
func (t *TypingTracker) Clear(id string) (room string, ok bool) {
	entry, ok := t.entries[id]
	if !ok {
		return "", false
	}
	delete(t.entries, id)
	return entry.room, true
}

// TypingNames resolves the display names of typing connections, limited to
// the members of room when room is set.
func (t *TypingTracker) TypingNames(room string) []string {
	var members []string
	if room != "" {
		members = t.rooms.MembersOf(room)
	}
	names := make([]string, 0, len(t.entries))
	for _, id := range t.TypingIDs(members) {
		if conn, err := t.registry.Get(id); err == nil && conn.Identified() {
			names = append(names, conn.DisplayName)
		}
	}
	return names
}

// TypingIDs lists typing connections in the order they started typing. When
// members is non-nil only those connections are considered. The order is
// stable within a process and carries no meaning.
func (t *TypingTracker) TypingIDs(members []string) []string {
	var allowed map[string]struct{}
	if members != nil {
		allowed = lo.SliceToMap(members, func(id string) (string, struct{}) {
			return id, struct{}{}
		})
	}

	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		if allowed != nil {
			if _, ok := allowed[id]; !ok {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.entries[ids[i]].seq < t.entries[ids[j]].seq
	})
	return ids
}
