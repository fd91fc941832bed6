package relay

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultMaxMessageLength is counted in runes after trimming.
const DefaultMaxMessageLength = 1000

// MessageSink receives every message appended to the log. Archive is called
// with the dispatcher lock held and must not block.
type MessageSink interface {
	Archive(msg Message)
}

type Options struct {
	MaxStoredMessages int
	MaxMessageLength  int
	Sink              MessageSink
}

// Dispatcher is the session and broadcast coordinator. A single lock guards
// the registry, room index, typing tracker and message log so that every
// event applies its mutation and computes its recipients atomically.
type Dispatcher struct {
	mu       sync.RWMutex
	registry *Registry
	rooms    *RoomIndex
	typing   *TypingTracker
	messages *MessageLog

	maxMessageLength int
	sink             MessageSink
	validate         *validator.Validate
	log              *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewDispatcher(log *slog.Logger, opts Options) *Dispatcher {
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultMaxMessageLength
	}
	registry := NewRegistry()
	rooms := NewRoomIndex()
	return &Dispatcher{
		registry:         registry,
		rooms:            rooms,
		typing:           NewTypingTracker(registry, rooms),
		messages:         NewMessageLog(opts.MaxStoredMessages),
		maxMessageLength: opts.MaxMessageLength,
		sink:             opts.Sink,
		validate:         validator.New(),
		log:              log,
		now:              time.Now,
		newID:            newMessageID,
	}
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Connect registers a freshly accepted channel in the Connected state.
func (d *Dispatcher) Connect(peer Peer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.registry.Register(peer.ID(), peer); err != nil {
		return err
	}
	d.log.Debug("Connection registered", "connection_id", peer.ID())
	return nil
}

// Handle processes one inbound command from connID. The boolean reports
// whether the command is ack-bearing; when it is, the returned Ack is the
// only acknowledgment for it.
func (d *Dispatcher) Handle(connID string, cmd Command) (ack Ack, acked bool) {
	if cmd == nil {
		return failAck(ErrInvalidPayload), true
	}
	acked = isAckBearing(cmd)
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Panic while handling event", "connection_id", connID, "type", cmd.Type(), "panic", r)
			ack = failAck(ErrInternal)
		}
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.registry.Get(connID)
	if err != nil || (!conn.Identified() && cmd.Type() != TypeEstablishIdentity) {
		return failAck(ErrNotIdentified), acked
	}

	switch c := cmd.(type) {
	case EstablishIdentity:
		ack = d.establishIdentity(conn, c)
	case JoinRoom:
		ack = d.joinRoom(conn, c)
	case LeaveRoom:
		ack = d.leaveRoom(conn, c)
	case SendMessage:
		ack = d.sendMessage(conn, c)
	case SendPrivateMessage:
		ack = d.sendPrivateMessage(conn, c)
	case SetTyping:
		d.setTyping(conn, c)
	case ReadReceipt:
		d.readReceipt(conn, c)
	default:
		ack = failAck(ErrInvalidPayload)
	}

	if acked && !ack.OK {
		d.log.Debug("Event rejected", "connection_id", connID, "type", cmd.Type(), "error", ack.Error)
	}
	return ack, acked
}

func isAckBearing(cmd Command) bool {
	switch cmd.(type) {
	case SetTyping, ReadReceipt:
		return false
	}
	return true
}

func (d *Dispatcher) establishIdentity(conn Connection, c EstablishIdentity) Ack {
	if conn.Identified() {
		return failAck(ErrAlreadyIdentified)
	}
	name, err := d.registry.SetIdentity(conn.ID, c.DisplayName)
	if err != nil {
		return failAck(err)
	}
	conn.DisplayName = name

	room := strings.TrimSpace(c.Room)
	if room != "" {
		if _, err := d.rooms.Join(room, conn.ID); err != nil {
			return failAck(err)
		}
	}

	d.emitAll(Outbound{Type: TypeRoster, Data: Roster{Users: d.registry.AllIdentities()}}, "")
	d.emitAll(Outbound{Type: TypeJoined, Data: Presence{DisplayName: name, ConnectionID: conn.ID}}, conn.ID)
	if room != "" {
		d.emitRoom(room, Outbound{Type: TypeJoinedRoom, Data: RoomPresence{
			DisplayName: name, ConnectionID: conn.ID, Room: room,
		}}, conn.ID)
	}

	d.log.Info("Identity established", "connection_id", conn.ID, "display_name", name, "room", room)
	return Ack{OK: true, ConnectionID: conn.ID}
}

func (d *Dispatcher) joinRoom(conn Connection, c JoinRoom) Ack {
	room := strings.TrimSpace(c.Room)
	if room == "" {
		return failAck(ErrInvalidRoom)
	}
	if d.rooms.RoomOf(conn.ID) == room {
		return okAck()
	}

	previous, err := d.rooms.Join(room, conn.ID)
	if err != nil {
		return failAck(err)
	}
	if previous != "" {
		d.afterLeave(conn, previous)
	}
	d.emitRoom(room, Outbound{Type: TypeJoinedRoom, Data: RoomPresence{
		DisplayName: conn.DisplayName, ConnectionID: conn.ID, Room: room,
	}}, conn.ID)
	return okAck()
}

func (d *Dispatcher) leaveRoom(conn Connection, c LeaveRoom) Ack {
	room := strings.TrimSpace(c.Room)
	if room == "" {
		return failAck(ErrInvalidRoom)
	}
	if d.rooms.Leave(room, conn.ID) {
		d.afterLeave(conn, room)
	}
	return okAck()
}

// afterLeave announces that conn left room and drops a typing flag scoped to it.
func (d *Dispatcher) afterLeave(conn Connection, room string) {
	d.emitRoom(room, Outbound{Type: TypeLeftRoom, Data: RoomPresence{
		DisplayName: conn.DisplayName, ConnectionID: conn.ID, Room: room,
	}}, conn.ID)

	if scope, ok := d.typing.Scope(conn.ID); ok && scope == room {
		d.typing.Clear(conn.ID)
		d.broadcastTyping(room)
	}
}

func (d *Dispatcher) sendMessage(conn Connection, c SendMessage) Ack {
	text, err := d.normalizeText(c.Text)
	if err != nil {
		return failAck(err)
	}
	room := d.resolveRoom(conn.ID, c.Room)

	msg := Message{
		ID:                 d.newID(),
		Text:               text,
		Sender:             conn.DisplayName,
		SenderConnectionID: conn.ID,
		Timestamp:          d.now().UTC(),
	}
	if room != "" {
		msg.Room = lo.ToPtr(room)
	}
	d.appendMessage(msg)

	out := Outbound{Type: TypeMessage, Data: msg}
	if room == "" {
		d.emitAll(out, "")
		return messageAck(msg)
	}
	recipients := d.rooms.MembersOf(room)
	if !lo.Contains(recipients, conn.ID) {
		recipients = append(recipients, conn.ID)
	}
	d.emit(recipients, out)
	return messageAck(msg)
}

func (d *Dispatcher) sendPrivateMessage(conn Connection, c SendPrivateMessage) Ack {
	if err := d.validate.Struct(c); err != nil {
		return failAck(ErrInvalidPayload)
	}
	target := strings.TrimSpace(c.TargetConnectionID)
	if _, err := d.registry.Get(target); err != nil {
		return failAck(ErrRecipientNotConnected)
	}
	text, err := d.normalizeText(c.Text)
	if err != nil {
		return failAck(err)
	}

	msg := Message{
		ID:                    d.newID(),
		Text:                  text,
		Sender:                conn.DisplayName,
		SenderConnectionID:    conn.ID,
		RecipientConnectionID: target,
		Timestamp:             d.now().UTC(),
		IsPrivate:             true,
	}
	d.appendMessage(msg)

	d.emit(lo.Uniq([]string{target, conn.ID}), Outbound{Type: TypePrivateMessage, Data: msg})
	return messageAck(msg)
}

func (d *Dispatcher) setTyping(conn Connection, c SetTyping) {
	room := d.resolveRoom(conn.ID, c.Room)
	previous, wasTyping := d.typing.Scope(conn.ID)

	d.typing.SetTyping(conn.ID, c.IsTyping, room)
	if wasTyping && previous != room {
		d.broadcastTyping(previous)
	}
	d.broadcastTyping(room)
}

func (d *Dispatcher) readReceipt(conn Connection, c ReadReceipt) {
	if err := d.validate.Struct(c); err != nil || strings.TrimSpace(c.MessageID) == "" {
		return
	}
	room := d.resolveRoom(conn.ID, c.Room)
	out := Outbound{Type: TypeReadReceiptBroadcast, Data: ReadReceiptBroadcast{
		MessageID:         strings.TrimSpace(c.MessageID),
		ReaderConnection:  conn.ID,
		ReaderDisplayName: conn.DisplayName,
		Room:              room,
		Timestamp:         d.now().UTC(),
	}}
	if room == "" {
		d.emitAll(out, "")
		return
	}
	d.emitRoom(room, out, "")
}

// Disconnect purges every trace of connID. Calling it again is a no-op.
func (d *Dispatcher) Disconnect(connID, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.registry.Get(connID)
	if err != nil {
		return
	}

	if room := d.rooms.RoomOf(connID); room != "" {
		d.rooms.Leave(room, connID)
		d.afterLeave(conn, room)
	}
	scope, wasTyping := d.typing.Clear(connID)
	d.registry.Unregister(connID)

	if wasTyping {
		d.broadcastTyping(scope)
	}
	if conn.Identified() {
		d.emitAll(Outbound{Type: TypeRoster, Data: Roster{Users: d.registry.AllIdentities()}}, "")
		d.emitAll(Outbound{Type: TypeLeft, Data: Presence{
			DisplayName: conn.DisplayName, ConnectionID: connID, Reason: reason,
		}}, "")
	}
	d.log.Info("Connection closed", "connection_id", connID, "display_name", conn.DisplayName, "reason", reason)
}

// Shutdown closes every registered peer. Each transport is expected to call
// Disconnect once its channel is gone.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.RLock()
	peers := make([]Peer, 0, d.registry.Len())
	for _, conn := range d.registry.conns {
		peers = append(peers, conn.peer)
	}
	d.mu.RUnlock()

	for _, peer := range peers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := peer.Close(); err != nil {
			d.log.Warn("Failed to close peer", "connection_id", peer.ID(), "error", err)
		}
	}
	return nil
}

// Restore seeds the message log, oldest first, without notifying the sink.
func (d *Dispatcher) Restore(msgs []Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, msg := range msgs {
		d.messages.Append(msg)
	}
}

func (d *Dispatcher) RecentMessages() []Message {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messages.Snapshot()
}

func (d *Dispatcher) ConnectedIdentities() []Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry.AllIdentities()
}

func (d *Dispatcher) Rooms() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms.Rooms()
}

func (d *Dispatcher) RoomOf(connID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms.RoomOf(connID)
}

func (d *Dispatcher) MembersOf(room string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rooms.MembersOf(room)
}

func (d *Dispatcher) TypingNames(room string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.typing.TypingNames(room)
}

func (d *Dispatcher) normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return "", ErrEmptyMessage
	case n > d.maxMessageLength:
		return "", ErrMessageTooLong
	}
	return text, nil
}

// resolveRoom prefers the room named in the payload over the current room.
func (d *Dispatcher) resolveRoom(connID, payloadRoom string) string {
	if room := strings.TrimSpace(payloadRoom); room != "" {
		return room
	}
	return d.rooms.RoomOf(connID)
}

func (d *Dispatcher) appendMessage(msg Message) {
	d.messages.Append(msg)
	if d.sink != nil {
		d.sink.Archive(msg)
	}
}

func (d *Dispatcher) broadcastTyping(room string) {
	out := Outbound{Type: TypeTypingList, Data: TypingList{Room: room, Names: d.typing.TypingNames(room)}}
	if room == "" {
		d.emitAll(out, "")
		return
	}
	d.emitRoom(room, out, "")
}

func (d *Dispatcher) emitRoom(room string, out Outbound, except string) {
	d.emit(lo.Without(d.rooms.MembersOf(room), except), out)
}

// emitAll reaches identified connections only.
func (d *Dispatcher) emitAll(out Outbound, except string) {
	for _, conn := range d.registry.identified() {
		if conn.ID != except {
			d.deliver(conn.peer, out)
		}
	}
}

func (d *Dispatcher) emit(ids []string, out Outbound) {
	for _, id := range ids {
		if conn, ok := d.registry.conns[id]; ok {
			d.deliver(conn.peer, out)
		}
	}
}

func (d *Dispatcher) deliver(peer Peer, out Outbound) {
	if peer == nil {
		return
	}
	if err := peer.Deliver(out); err != nil {
		d.log.Warn("Delivery failed", "connection_id", peer.ID(), "type", out.Type, "error", err)
	}
}
