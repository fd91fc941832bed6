package relay

import "time"

// EventType names every event crossing the relay boundary.
type EventType string

const (
	// Inbound
	TypeEstablishIdentity  EventType = "establish_identity"
	TypeJoinRoom           EventType = "join_room"
	TypeLeaveRoom          EventType = "leave_room"
	TypeSendMessage        EventType = "send_message"
	TypeSendPrivateMessage EventType = "send_private_message"
	TypeSetTyping          EventType = "set_typing"
	TypeReadReceipt        EventType = "read_receipt"

	// Outbound
	TypeRoster               EventType = "roster"
	TypeJoined               EventType = "joined"
	TypeLeft                 EventType = "left"
	TypeJoinedRoom           EventType = "joined_room"
	TypeLeftRoom             EventType = "left_room"
	TypeMessage              EventType = "message"
	TypePrivateMessage       EventType = "private_message"
	TypeTypingList           EventType = "typing_list"
	TypeReadReceiptBroadcast EventType = "read_receipt_broadcast"
)

// Command is an inbound event addressed to the dispatcher.
type Command interface {
	Type() EventType
}

type EstablishIdentity struct {
	DisplayName string `json:"display_name"`
	Room        string `json:"room,omitempty"`
}

type JoinRoom struct {
	Room string `json:"room"`
}

type LeaveRoom struct {
	Room string `json:"room"`
}

type SendMessage struct {
	Text string `json:"text"`
	Room string `json:"room,omitempty"`
}

type SendPrivateMessage struct {
	TargetConnectionID string `json:"target_connection_id" validate:"required"`
	Text               string `json:"text" validate:"required"`
}

type SetTyping struct {
	IsTyping bool   `json:"is_typing"`
	Room     string `json:"room,omitempty"`
}

type ReadReceipt struct {
	MessageID string `json:"message_id" validate:"required"`
	Room      string `json:"room,omitempty"`
}

func (EstablishIdentity) Type() EventType  { return TypeEstablishIdentity }
func (JoinRoom) Type() EventType           { return TypeJoinRoom }
func (LeaveRoom) Type() EventType          { return TypeLeaveRoom }
func (SendMessage) Type() EventType        { return TypeSendMessage }
func (SendPrivateMessage) Type() EventType { return TypeSendPrivateMessage }
func (SetTyping) Type() EventType          { return TypeSetTyping }
func (ReadReceipt) Type() EventType        { return TypeReadReceipt }

// Outbound is a single delivery to one peer.
type Outbound struct {
	Type EventType
	Data any
}

// Message is immutable once appended to the log.
type Message struct {
	ID                    string    `json:"id"`
	Text                  string    `json:"text"`
	Sender                string    `json:"sender"`
	SenderConnectionID    string    `json:"sender_connection_id"`
	RecipientConnectionID string    `json:"recipient_connection_id,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
	Room                  *string   `json:"room"`
	IsPrivate             bool      `json:"is_private"`
}

type Identity struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
}

type Roster struct {
	Users []Identity `json:"users"`
}

// Presence is the payload of joined and left notices.
type Presence struct {
	DisplayName  string `json:"display_name"`
	ConnectionID string `json:"connection_id"`
	Reason       string `json:"reason,omitempty"`
}

// RoomPresence is the payload of joined_room and left_room notices.
type RoomPresence struct {
	DisplayName  string `json:"display_name"`
	ConnectionID string `json:"connection_id"`
	Room         string `json:"room"`
}

type TypingList struct {
	Room  string   `json:"room,omitempty"`
	Names []string `json:"names"`
}

type ReadReceiptBroadcast struct {
	MessageID         string    `json:"message_id"`
	ReaderConnection  string    `json:"reader_connection_id"`
	ReaderDisplayName string    `json:"reader_display_name"`
	Room              string    `json:"room,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Ack is the single result returned for an ack-bearing command.
type Ack struct {
	OK           bool       `json:"ok"`
	Error        string     `json:"error,omitempty"`
	ConnectionID string     `json:"connection_id,omitempty"`
	MessageID    string     `json:"message_id,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
}

func okAck() Ack { return Ack{OK: true} }

func failAck(err error) Ack { return Ack{Error: err.Error()} }

func messageAck(msg Message) Ack {
	ts := msg.Timestamp
	return Ack{OK: true, MessageID: msg.ID, Timestamp: &ts}
}
