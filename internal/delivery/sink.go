// Package delivery drains the outbound queue into a Sink. Rendering and
// chat-platform sessions live behind the Sink boundary and are not part of
// this pipeline; delivery to the sink is best-effort (validated events are
// guaranteed to reach the queue, not the other side of it).
package delivery

import (
	"context"

	"otakufeed/internal/domain"
	"otakufeed/pkg/logx"
)

// Sink consumes one notifiable event.
type Sink interface {
	Deliver(ctx context.Context, ev domain.NotifiableEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev domain.NotifiableEvent) error

func (f SinkFunc) Deliver(ctx context.Context, ev domain.NotifiableEvent) error {
	return f(ctx, ev)
}

// LogSink records deliveries in the log. It stands in for a real chat
// adapter in the daemon binary.
type LogSink struct {
	Log logx.Logger
}

func (s LogSink) Deliver(_ context.Context, ev domain.NotifiableEvent) error {
	recipients := make([]string, 0, len(ev.Recipients))
	for _, r := range ev.Recipients {
		recipients = append(recipients, r.String())
	}
	s.Log.Info("delivering release",
		logx.String("title", ev.Content.Title),
		logx.String("variant", ev.Content.Variant.String()),
		logx.Int("downloads", len(ev.Content.Downloads)),
		logx.Any("recipients", recipients))
	return nil
}
