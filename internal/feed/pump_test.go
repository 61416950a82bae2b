package feed

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"otakufeed/internal/domain"
	"otakufeed/internal/outbound"
	"otakufeed/internal/subscribers"
	"otakufeed/internal/wire"
	"otakufeed/pkg/logx"
)

type fakeConn struct {
	msgs []*wire.ReleaseMessage
	// err terminates the stream after msgs are drained; nil means clean EOF.
	err    error
	i      int
	closed bool
}

func (c *fakeConn) Next(ctx context.Context) (*wire.ReleaseMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.i >= len(c.msgs) {
		if c.err != nil {
			return nil, c.err
		}
		return nil, io.EOF
	}
	m := c.msgs[c.i]
	c.i++
	return m, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeResolver struct {
	recipients map[string][]domain.Recipient
	err        error
}

func (r *fakeResolver) Resolve(_ context.Context, title string) ([]domain.Recipient, error) {
	if r.err != nil {
		return nil, r.err
	}
	recs, ok := r.recipients[title]
	if !ok || len(recs) == 0 {
		return nil, subscribers.ErrNoSubscribers
	}
	return recs, nil
}

func completeMessage(title string) *wire.ReleaseMessage {
	return &wire.ReleaseMessage{
		Title:     title,
		Episode:   &wire.EpisodeMessage{Number: 5},
		CreatedAt: &wire.Timestamp{Seconds: 1700000000},
		UpdatedAt: &wire.Timestamp{Seconds: 1700000000},
		Downloads: []wire.DownloadMessage{
			{PublishedDate: &wire.Timestamp{Seconds: 1700000000}, Resolution: 720},
			{PublishedDate: &wire.Timestamp{Seconds: 1700000000}, Resolution: 1080},
		},
	}
}

func twoChannels() []domain.Recipient {
	return []domain.Recipient{
		domain.Channel{ChannelID: 100, GuildID: 200},
		domain.Channel{ChannelID: 101, GuildID: 200},
	}
}

func TestPumpEnqueuesCompleteSubscribedRelease(t *testing.T) {
	t.Parallel()
	queue := outbound.New(4)
	counters := &Counters{}
	pump := NewPump(
		&fakeResolver{recipients: map[string][]domain.Recipient{"Show A": twoChannels()}},
		queue, logx.Nop(), counters,
	)

	conn := &fakeConn{msgs: []*wire.ReleaseMessage{completeMessage("Show A")}}
	if err := pump.Run(context.Background(), conn); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := counters.Enqueued.Load(); got != 1 {
		t.Fatalf("Enqueued = %d, want 1", got)
	}
	ev := <-queue.Events()
	if ev.Content.Title != "Show A" {
		t.Fatalf("Title = %q", ev.Content.Title)
	}
	if len(ev.Recipients) != 2 {
		t.Fatalf("got %d recipients, want 2", len(ev.Recipients))
	}
	if !ev.Content.IsComplete() {
		t.Fatal("enqueued event must be complete")
	}
}

func TestPumpDropsWithoutSubscribers(t *testing.T) {
	t.Parallel()
	queue := outbound.New(4)
	counters := &Counters{}
	pump := NewPump(&fakeResolver{}, queue, logx.Nop(), counters)

	conn := &fakeConn{msgs: []*wire.ReleaseMessage{completeMessage("Show A")}}
	if err := pump.Run(context.Background(), conn); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := counters.NoSubscribers.Load(); got != 1 {
		t.Fatalf("NoSubscribers = %d, want 1", got)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue has %d events, want 0", queue.Len())
	}
}

func TestPumpSurvivesMalformedMessage(t *testing.T) {
	t.Parallel()
	queue := outbound.New(4)
	counters := &Counters{}
	pump := NewPump(
		&fakeResolver{recipients: map[string][]domain.Recipient{"Show A": twoChannels()}},
		queue, logx.Nop(), counters,
	)

	bad := completeMessage("Show A")
	bad.CreatedAt = nil
	conn := &fakeConn{msgs: []*wire.ReleaseMessage{bad, completeMessage("Show A")}}

	if err := pump.Run(context.Background(), conn); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// One bad message does not tear the connection down; the next one is
	// processed normally.
	if got := counters.ConversionFailures.Load(); got != 1 {
		t.Fatalf("ConversionFailures = %d, want 1", got)
	}
	if got := counters.Enqueued.Load(); got != 1 {
		t.Fatalf("Enqueued = %d, want 1", got)
	}
}

func TestPumpDropsIncompleteRelease(t *testing.T) {
	t.Parallel()
	queue := outbound.New(4)
	counters := &Counters{}
	pump := NewPump(
		&fakeResolver{recipients: map[string][]domain.Recipient{"Show A": twoChannels()}},
		queue, logx.Nop(), counters,
	)

	msg := completeMessage("Show A")
	msg.Downloads = msg.Downloads[:1] // 720p only
	conn := &fakeConn{msgs: []*wire.ReleaseMessage{msg}}

	if err := pump.Run(context.Background(), conn); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := counters.Incomplete.Load(); got != 1 {
		t.Fatalf("Incomplete = %d, want 1", got)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue has %d events, want 0", queue.Len())
	}
}

func TestPumpReturnsStreamError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	pump := NewPump(&fakeResolver{}, outbound.New(4), logx.Nop(), nil)

	err := pump.Run(context.Background(), &fakeConn{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestPumpBlocksOnFullQueue(t *testing.T) {
	t.Parallel()
	queue := outbound.New(1)
	counters := &Counters{}
	pump := NewPump(
		&fakeResolver{recipients: map[string][]domain.Recipient{"Show A": twoChannels()}},
		queue, logx.Nop(), counters,
	)

	conn := &fakeConn{msgs: []*wire.ReleaseMessage{
		completeMessage("Show A"),
		completeMessage("Show A"),
	}}

	done := make(chan error, 1)
	go func() { done <- pump.Run(context.Background(), conn) }()

	select {
	case err := <-done:
		t.Fatalf("pump finished with a full queue: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	if got := counters.Enqueued.Load(); got != 1 {
		t.Fatalf("Enqueued = %d, want 1 while blocked", got)
	}

	// Draining unblocks the pump; both events arrive in wire order.
	<-queue.Events()
	if err := <-done; err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := counters.Enqueued.Load(); got != 2 {
		t.Fatalf("Enqueued = %d, want 2", got)
	}
}
