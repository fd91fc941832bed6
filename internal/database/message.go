package database

import (
	"context"

	"github.com/samber/lo"
	"github.com/thereayou/presence-relay/internal/models"
	"github.com/thereayou/presence-relay/internal/relay"
)

func (d *Database) SaveMessage(ctx context.Context, msg relay.Message) error {
	return d.db.WithContext(ctx).Create(toModel(msg)).Error
}

// RecentMessages returns up to limit archived messages, oldest first.
func (d *Database) RecentMessages(ctx context.Context, limit int) ([]relay.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Newest first from the query, callers want the oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return lo.Map(messages, func(m models.Message, _ int) relay.Message {
		return fromModel(m)
	}), nil
}

func toModel(msg relay.Message) *models.Message {
	return &models.Message{
		ID:                    msg.ID,
		Text:                  msg.Text,
		Sender:                msg.Sender,
		SenderConnectionID:    msg.SenderConnectionID,
		RecipientConnectionID: msg.RecipientConnectionID,
		Room:                  msg.Room,
		IsPrivate:             msg.IsPrivate,
		CreatedAt:             msg.Timestamp,
	}
}

func fromModel(m models.Message) relay.Message {
	return relay.Message{
		ID:                    m.ID,
		Text:                  m.Text,
		Sender:                m.Sender,
		SenderConnectionID:    m.SenderConnectionID,
		RecipientConnectionID: m.RecipientConnectionID,
		Timestamp:             m.CreatedAt.UTC(),
		Room:                  m.Room,
		IsPrivate:             m.IsPrivate,
	}
}
