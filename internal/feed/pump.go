package feed

import (
	"context"
	"errors"
	"io"

	"golang.org/x/time/rate"

	"otakufeed/internal/domain"
	"otakufeed/internal/outbound"
	"otakufeed/internal/subscribers"
	"otakufeed/internal/wire"
	"otakufeed/pkg/logx"
)

// Resolver answers "who subscribed to this title".
type Resolver interface {
	Resolve(ctx context.Context, title string) ([]domain.Recipient, error)
}

// Pump drains one live connection sequentially: convert, filter, resolve,
// enqueue. Per-message failures are logged and skipped; only the connection
// ending (cleanly or not) stops the loop.
type Pump struct {
	resolver Resolver
	queue    *outbound.Queue
	log      logx.Logger
	counters *Counters

	// errLog bounds the rate of per-message failure logging so a poisoned
	// feed cannot flood the sinks. Counters still see every failure.
	errLog *rate.Limiter
}

func NewPump(resolver Resolver, queue *outbound.Queue, log logx.Logger, counters *Counters) *Pump {
	if log.IsZero() {
		log = logx.Nop()
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &Pump{
		resolver: resolver,
		queue:    queue,
		log:      log,
		counters: counters,
		errLog:   rate.NewLimiter(rate.Limit(1), 10),
	}
}

// Run consumes the connection until it ends. A nil return means the stream
// closed cleanly; any other error is a transport or protocol failure. Both
// hand control back to the supervisor.
func (p *Pump) Run(ctx context.Context, conn Conn) error {
	for {
		msg, err := conn.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		p.counters.Received.Add(1)

		ev, err := wire.Convert(msg)
		if err != nil {
			p.counters.ConversionFailures.Add(1)
			p.dropped("discarding malformed message", msg.Title, err)
			continue
		}

		if !ev.IsComplete() {
			// Expected: the feed re-emits the release once the canonical
			// resolution exists.
			p.counters.Incomplete.Add(1)
			p.log.Debug("release not complete yet",
				logx.String("title", ev.Title),
				logx.String("variant", ev.Variant.String()))
			continue
		}

		recipients, err := p.resolver.Resolve(ctx, ev.Title)
		if err != nil {
			if errors.Is(err, subscribers.ErrNoSubscribers) {
				p.counters.NoSubscribers.Add(1)
				p.log.Debug("no subscribers", logx.String("title", ev.Title))
			} else {
				p.counters.ResolutionFailures.Add(1)
				p.dropped("discarding event, resolution failed", ev.Title, err)
			}
			continue
		}

		notifiable := domain.NotifiableEvent{Content: ev, Recipients: recipients}
		if err := p.queue.Push(ctx, notifiable); err != nil {
			return err
		}
		p.counters.Enqueued.Add(1)
		p.log.Info("release enqueued",
			logx.String("title", ev.Title),
			logx.String("variant", ev.Variant.String()),
			logx.Int("recipients", len(recipients)))
	}
}

func (p *Pump) dropped(msg, title string, err error) {
	if !p.errLog.Allow() {
		return
	}
	p.log.Error(msg, logx.String("title", title), logx.Err(err))
}
