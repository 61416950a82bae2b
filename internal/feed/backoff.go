package feed

import "time"

// Default reconnect timing. The backoff applies between failed connection
// attempts; the cool-down applies after a stream ends, before the next
// connect cycle. Both delays are intentional.
const (
	DefaultBackoffBase = 125 * time.Millisecond
	DefaultBackoffMax  = 30 * time.Second
	DefaultCooldown    = 5 * time.Second
)

// backoff yields a doubling wait capped at max. It is local to one connect
// cycle; a fresh cycle gets a fresh backoff starting at base.
type backoff struct {
	base time.Duration
	max  time.Duration
	next time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max < base {
		max = base
	}
	return &backoff{base: base, max: max, next: base}
}

// Next returns the wait for the current failure and advances the schedule.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return d
}

func (b *backoff) Reset() { b.next = b.base }
