package delivery

import (
	"context"

	"otakufeed/internal/domain"
	"otakufeed/pkg/logx"
)

// Consumer is the single reader of the outbound queue. Draining slowly is
// how backpressure reaches the feed pump; a sink failure only loses that one
// delivery, never stops the loop.
type Consumer struct {
	events <-chan domain.NotifiableEvent
	sink   Sink
	log    logx.Logger
}

func NewConsumer(events <-chan domain.NotifiableEvent, sink Sink, log logx.Logger) *Consumer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Consumer{events: events, sink: sink, log: log}
}

func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-c.events:
			if !ok {
				return nil
			}
			if err := c.sink.Deliver(ctx, ev); err != nil {
				c.log.Warn("delivery failed",
					logx.String("title", ev.Content.Title),
					logx.Int("recipients", len(ev.Recipients)),
					logx.Err(err))
			}
		}
	}
}
