package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"otakufeed/internal/config"
	"otakufeed/internal/delivery"
	"otakufeed/internal/feed"
	"otakufeed/internal/outbound"
	"otakufeed/internal/runtime/taskgroup"
	"otakufeed/internal/storage"
	"otakufeed/internal/subscribers"
	"otakufeed/pkg/logx"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the feed pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), opts.configPath)
		},
	}
}

func runDaemon(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(loggingConfig(cfg))
	defer logSvc.Close()

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeoutValue(),
	}, log.With(logx.String("component", "storage")))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	counters := &feed.Counters{}
	queue := outbound.New(cfg.Feed.QueueCapacity())
	resolver := subscribers.New(store)
	dialer := feed.NewHTTPDialer(cfg.Feed.Endpoint, cfg.Feed.DialTimeoutValue())

	pump := feed.NewPump(resolver, queue, log.With(logx.String("component", "feed")), counters)
	supervisor := feed.NewSupervisor(dialer, pump, cfg.Feed.SupervisorConfig(), log.With(logx.String("component", "feed")), counters)

	deliveryLog := log.With(logx.String("component", "delivery"))
	consumer := delivery.NewConsumer(queue.Events(), delivery.LogSink{Log: deliveryLog}, deliveryLog)

	g := taskgroup.New(ctx, log)

	g.Go("feed.supervisor", supervisor.Run)
	g.Go("delivery.consumer", consumer.Run)
	g.Go("config.watch", func(ctx context.Context) error {
		return config.Watch(ctx, configPath, log.With(logx.String("component", "config")), func(next *config.Config) {
			// Only logging settings can change without a restart; the feed
			// endpoint and storage path are fixed for the process lifetime.
			logSvc.Apply(loggingConfig(next))
		})
	})

	if cfg.Stats.Enabled {
		stopStats, err := startStatsJob(g.Context(), cfg.Stats.CronSchedule(), counters, store, log)
		if err != nil {
			_ = g.Stop()
			return fmt.Errorf("start stats job: %w", err)
		}
		defer stopStats()
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		log.Debug("notified systemd: ready")
	}

	log.Info("otakufeed started",
		logx.String("endpoint", cfg.Feed.Endpoint),
		logx.Int("queue_capacity", queue.Cap()),
		logx.String("storage", cfg.Storage.Path))

	err = g.Wait()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info("otakufeed stopped", statsFields(counters.Snapshot())...)
	return err
}

func loggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// startStatsJob logs a pipeline stats snapshot on the configured cron
// schedule. The returned func stops the scheduler and waits for a running
// job to finish.
func startStatsJob(ctx context.Context, schedule string, counters *feed.Counters, store storage.Store, log logx.Logger) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		countCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		fields := statsFields(counters.Snapshot())
		if n, err := store.CountSubscriptions(countCtx); err != nil {
			log.Warn("stats: count subscriptions failed", logx.Err(err))
		} else {
			fields = append(fields, logx.Int64("subscriptions", n))
		}
		log.Info("pipeline stats", fields...)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

func statsFields(s feed.Snapshot) []logx.Field {
	return []logx.Field{
		logx.Uint64("received", s.Received),
		logx.Uint64("enqueued", s.Enqueued),
		logx.Uint64("incomplete", s.Incomplete),
		logx.Uint64("no_subscribers", s.NoSubscribers),
		logx.Uint64("conversion_failures", s.ConversionFailures),
		logx.Uint64("resolution_failures", s.ResolutionFailures),
		logx.Uint64("connects", s.Connects),
		logx.Uint64("connect_failures", s.ConnectFailures),
		logx.Uint64("stream_failures", s.StreamFailures),
	}
}
