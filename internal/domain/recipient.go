package domain

import "fmt"

// Recipient is a closed sum of notification targets: a direct user or a
// channel within a guild. Identifiers are always non-zero; the constructors
// are the only way to build one.
type Recipient interface {
	fmt.Stringer
	isRecipient()
}

// User targets a single user by ID.
type User struct {
	ID uint64
}

// Channel targets a channel within a guild.
type Channel struct {
	ChannelID uint64
	GuildID   uint64
}

func (User) isRecipient()    {}
func (Channel) isRecipient() {}

func (u User) String() string { return fmt.Sprintf("user:%d", u.ID) }

func (c Channel) String() string {
	return fmt.Sprintf("channel:%d@%d", c.ChannelID, c.GuildID)
}

// NewUser builds a User handle, rejecting the zero ID.
func NewUser(id uint64) (User, error) {
	if id == 0 {
		return User{}, fmt.Errorf("user id must be non-zero")
	}
	return User{ID: id}, nil
}

// NewChannel builds a Channel handle, rejecting zero IDs.
func NewChannel(channelID, guildID uint64) (Channel, error) {
	if channelID == 0 {
		return Channel{}, fmt.Errorf("channel id must be non-zero")
	}
	if guildID == 0 {
		return Channel{}, fmt.Errorf("guild id must be non-zero")
	}
	return Channel{ChannelID: channelID, GuildID: guildID}, nil
}

// NotifiableEvent pairs a complete release with the recipients that care
// about it. Invariants: Content has at least one download at the canonical
// resolution and Recipients is non-empty.
type NotifiableEvent struct {
	Content    ReleaseEvent
	Recipients []Recipient
}
