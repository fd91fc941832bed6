//go:generate go run go.uber.org/mock/mockgen -source=message_store.go -destination=../mocks/mock_message_store.go -package=mocks

package services

import (
	"context"

	"github.com/thereayou/presence-relay/internal/relay"
)

// MessageStore is a best-effort archive of relayed messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg relay.Message) error
	RecentMessages(ctx context.Context, limit int) ([]relay.Message, error)
}
