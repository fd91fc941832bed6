package relay

import (
	"strings"

	"github.com/samber/lo"
)

// RoomIndex tracks which connections are in which room. A connection is in
// at most one room at a time.
type RoomIndex struct {
	rooms  map[string]map[string]struct{}
	byConn map[string]string
}

func NewRoomIndex() *RoomIndex {
	return &RoomIndex{
		rooms:  make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Join moves id into room and returns the room it implicitly left, if any.
func (x *RoomIndex) Join(room, id string) (previous string, err error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return "", ErrInvalidRoom
	}
	previous = x.byConn[id]
	if previous == room {
		return "", nil
	}
	if previous != "" {
		x.Leave(previous, id)
	}

	members, ok := x.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		x.rooms[room] = members
	}
	members[id] = struct{}{}
	x.byConn[id] = room
	return previous, nil
}

// Leave reports whether id was a member of room.
func (x *RoomIndex) Leave(room, id string) bool {
	members, ok := x.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[id]; !ok {
		return false
	}
	delete(members, id)
	if len(members) == 0 {
		delete(x.rooms, room)
	}
	if x.byConn[id] == room {
		delete(x.byConn, id)
	}
	return true
}

func (x *RoomIndex) MembersOf(room string) []string {
	members, ok := x.rooms[room]
	if !ok {
		return []string{}
	}
	return lo.Keys(members)
}

func (x *RoomIndex) RoomOf(id string) string {
	return x.byConn[id]
}

// Rooms returns member counts per room.
func (x *RoomIndex) Rooms() map[string]int {
	return lo.MapValues(x.rooms, func(members map[string]struct{}, _ string) int {
		return len(members)
	})
}
