package websocket

import (
	"errors"
	"fmt"

	"github.com/thereayou/presence-relay/internal/relay"
)

var (
	ErrClientQueueFull = fmt.Errorf("client message queue: %w", relay.ErrPeerQueueFull)
	ErrInvalidMessage  = errors.New("invalid message format")
)
