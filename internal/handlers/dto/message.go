package dto

import (
	"time"
)

// MessageResponse is a public message served to late joiners.
type MessageResponse struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	Sender             string    `json:"sender"`
	SenderConnectionID string    `json:"sender_connection_id"`
	Room               *string   `json:"room"`
	Timestamp          time.Time `json:"timestamp"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type UserInfo struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
}

type UsersResponse struct {
	Users []UserInfo `json:"users"`
}

type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type RoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
}
