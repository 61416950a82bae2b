// Package subscribers resolves a release title to the recipients that
// subscribed to it, turning the store's textual rows into validated handles.
package subscribers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"otakufeed/internal/domain"
	"otakufeed/internal/storage"
)

// ErrNoSubscribers is returned when nobody subscribed to a title. Expected
// and logged by the caller, never treated as a transport failure.
var ErrNoSubscribers = errors.New("no subscribers for title")

// InvalidIdentifierError reports a store row whose textual identifier does
// not parse into a non-zero 64-bit integer. The whole lookup fails; there is
// no partial resolution.
type InvalidIdentifierError struct {
	Field string
	Err   error
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InvalidIdentifierError) Unwrap() error { return e.Err }

// StoreError wraps a store-unreachable condition.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return "subscriber store: " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// ChannelFinder is the one store operation the resolver needs.
type ChannelFinder interface {
	FindSubscribedChannels(ctx context.Context, title string) ([]storage.ChannelRow, error)
}

// Resolver answers "who cares about this title" with typed handles.
type Resolver struct {
	store ChannelFinder
}

func New(store ChannelFinder) *Resolver {
	return &Resolver{store: store}
}

// Resolve issues one store lookup keyed by exact title and parses every row.
// On success the returned slice is non-empty and preserves store order.
func (r *Resolver) Resolve(ctx context.Context, title string) ([]domain.Recipient, error) {
	rows, err := r.store.FindSubscribedChannels(ctx, title)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if len(rows) == 0 {
		return nil, ErrNoSubscribers
	}

	recipients := make([]domain.Recipient, 0, len(rows))
	for _, row := range rows {
		channelID, err := parseID("channel_id", row.ChannelID)
		if err != nil {
			return nil, err
		}
		guildID, err := parseID("guild_id", row.GuildID)
		if err != nil {
			return nil, err
		}
		ch, err := domain.NewChannel(channelID, guildID)
		if err != nil {
			return nil, &InvalidIdentifierError{Field: "channel_id", Err: err}
		}
		recipients = append(recipients, ch)
	}
	return recipients, nil
}

func parseID(field, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &InvalidIdentifierError{Field: field, Err: err}
	}
	if v == 0 {
		return 0, &InvalidIdentifierError{Field: field, Err: errors.New("must be non-zero")}
	}
	return v, nil
}
