package feed

import (
	"context"
	"time"

	"otakufeed/pkg/logx"
)

// Config tunes the supervisor's reconnect timing.
type Config struct {
	// BackoffBase is the first wait after a failed connection attempt;
	// subsequent failures double it up to BackoffMax. Resets on every fresh
	// connect cycle.
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// Cooldown is the fixed wait after a stream ends (cleanly or not) before
	// the next connect cycle starts. Applied in addition to the connect
	// backoff.
	Cooldown time.Duration
}

func (c Config) withDefaults() Config {
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	return c
}

// Supervisor owns the upstream connection lifecycle: it connects with capped
// exponential backoff, hands the live connection to the pump, and reconnects
// whenever the stream ends. It never stops on its own; every failure is
// recoverable, and only context cancellation ends the loop.
type Supervisor struct {
	dialer   Dialer
	pump     *Pump
	cfg      Config
	log      logx.Logger
	counters *Counters

	sleep func(ctx context.Context, d time.Duration) error
}

func NewSupervisor(dialer Dialer, pump *Pump, cfg Config, log logx.Logger, counters *Counters) *Supervisor {
	if log.IsZero() {
		log = logx.Nop()
	}
	if counters == nil {
		counters = &Counters{}
	}
	return &Supervisor{
		dialer:   dialer,
		pump:     pump,
		cfg:      cfg.withDefaults(),
		log:      log,
		counters: counters,
		sleep:    sleepCtx,
	}
}

// Run loops connect -> stream -> cool-down until ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		conn, err := s.connect(ctx)
		if err != nil {
			// Only cancellation escapes connect.
			return err
		}

		err = s.pump.Run(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.counters.StreamFailures.Add(1)
			s.log.Error("stream failed, reconnecting",
				logx.Err(err), logx.Duration("cooldown", s.cfg.Cooldown))
		} else {
			s.log.Info("stream closed, reconnecting",
				logx.Duration("cooldown", s.cfg.Cooldown))
		}

		if err := s.sleep(ctx, s.cfg.Cooldown); err != nil {
			return err
		}
	}
}

// connect retries until a connection is established or ctx is canceled. The
// backoff is local to this cycle and starts at base again on the next call.
func (s *Supervisor) connect(ctx context.Context) (Conn, error) {
	bo := newBackoff(s.cfg.BackoffBase, s.cfg.BackoffMax)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conn, err := s.dialer.Dial(ctx)
		if err == nil {
			s.counters.Connects.Add(1)
			s.log.Info("connected to release feed")
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s.counters.ConnectFailures.Add(1)
		wait := bo.Next()
		s.log.Warn("connect failed, retrying",
			logx.Err(err), logx.Duration("backoff", wait))
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
