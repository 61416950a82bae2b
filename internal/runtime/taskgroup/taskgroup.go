// Package taskgroup runs named goroutines tied to a shared context, with
// panic recovery and first-error capture. The pipeline's long-lived loops
// (feed supervisor, delivery consumer, config watcher) run under one group
// so a defect in any of them shuts the process down cleanly.
package taskgroup

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"otakufeed/pkg/logx"
)

type Group struct {
	ctx    context.Context
	cancel context.CancelFunc

	log      logx.Logger
	errOnce  sync.Once
	firstErr atomic.Value // stores error
	wg       sync.WaitGroup
}

func New(parent context.Context, log logx.Logger) *Group {
	ctx, cancel := context.WithCancel(parent)
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Group{ctx: ctx, cancel: cancel, log: log}
}

func (g *Group) Context() context.Context { return g.ctx }

func (g *Group) Err() error {
	v := g.firstErr.Load()
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}

// Go starts fn under the group. A panic or a non-cancellation error cancels
// the whole group; the first such error is kept and returned by Wait.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in %s: %v", name, r)
				g.log.Error("goroutine panicked",
					logx.String("name", name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())))
				g.setErr(err)
				g.cancel()
			}
		}()

		g.log.Debug("goroutine started", logx.String("name", name))
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			g.setErr(fmt.Errorf("%s: %w", name, err))
			g.cancel()
		}
		g.log.Debug("goroutine stopped", logx.String("name", name))
	}()
}

// Stop cancels the group and waits for every goroutine to exit.
func (g *Group) Stop() error {
	g.cancel()
	return g.Wait()
}

// Wait blocks until all goroutines exit and returns the first error, if any.
func (g *Group) Wait() error {
	g.wg.Wait()
	return g.Err()
}

func (g *Group) setErr(err error) {
	if err == nil {
		return
	}
	g.errOnce.Do(func() { g.firstErr.Store(err) })
}
