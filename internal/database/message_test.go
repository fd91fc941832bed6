package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/presence-relay/internal/relay"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite archive.
func setupTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	d := NewDatabase(db)
	if err := d.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return d
}

func TestDatabase_RecentMessages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := setupTestDB(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	// Given five archived messages, one private and one in a room
	for i := 0; i < 5; i++ {
		msg := relay.Message{
			ID:                 fmt.Sprintf("m%d", i),
			Text:               fmt.Sprintf("text %d", i),
			Sender:             "Alice",
			SenderConnectionID: "c1",
			Timestamp:          base.Add(time.Duration(i) * time.Second),
		}
		if i == 2 {
			msg.Room = lo.ToPtr("lobby")
		}
		if i == 3 {
			msg.IsPrivate = true
			msg.RecipientConnectionID = "c2"
		}
		req.NoError(d.SaveMessage(ctx, msg))
	}

	// When the three most recent are requested
	got, err := d.RecentMessages(ctx, 3)

	// Then they come back oldest first with every field intact
	req.NoError(err)
	req.Equal([]string{"m2", "m3", "m4"}, lo.Map(got, func(m relay.Message, _ int) string { return m.ID }))
	req.Equal("lobby", *got[0].Room)
	req.True(got[1].IsPrivate)
	req.Equal("c2", got[1].RecipientConnectionID)
	req.Nil(got[2].Room)
	req.True(base.Add(4 * time.Second).Equal(got[2].Timestamp))
}

func TestDatabase_DuplicateID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := setupTestDB(t)
	msg := relay.Message{ID: "dup", Text: "x", Sender: "A", SenderConnectionID: "c1", Timestamp: time.Now()}

	req.NoError(d.SaveMessage(ctx, msg))
	req.Error(d.SaveMessage(ctx, msg))
}
