package models

import (
	"time"
)

// Message is the archived form of a relayed chat message.
type Message struct {
	ID                    string    `gorm:"type:varchar(36);primaryKey"`
	Text                  string    `gorm:"not null"`
	Sender                string    `gorm:"not null"`
	SenderConnectionID    string    `gorm:"type:varchar(36);not null"`
	RecipientConnectionID string    `gorm:"type:varchar(36)"`
	Room                  *string   `gorm:"index"`
	IsPrivate             bool      `gorm:"not null;default:false"`
	CreatedAt             time.Time `gorm:"index"`
}
