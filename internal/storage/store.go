// Package storage persists title subscriptions: which channels want to hear
// about which release titles. The feed pipeline only reads from it (one
// lookup per event); the CLI admin commands write to it.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"otakufeed/pkg/logx"
)

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty, "sqlite" is assumed.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// ChannelRow is one raw subscription row as the store returns it: textual
// identifiers, parsed and validated by the resolver, not here.
type ChannelRow struct {
	ChannelID string
	GuildID   string
}

// Subscription is a full row, used by the admin commands.
type Subscription struct {
	Title     string
	ChannelID string
	GuildID   string
	CreatedAt time.Time
}

// Store is the persistence API consumed by the resolver and the CLI.
type Store interface {
	// FindSubscribedChannels returns the rows subscribed to an exact title,
	// in insertion order. An empty result is not an error.
	FindSubscribedChannels(ctx context.Context, title string) ([]ChannelRow, error)

	Subscribe(ctx context.Context, title string, channelID, guildID uint64) error
	Unsubscribe(ctx context.Context, title string, channelID uint64) error
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	CountSubscriptions(ctx context.Context) (int64, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
