package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"otakufeed/internal/config"
	"otakufeed/internal/storage"
	"otakufeed/pkg/logx"
)

// openStore opens the subscription store for a one-shot admin command.
func openStore(configPath string) (storage.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeoutValue(),
	}, logx.NewConsole("warn"))
}

func newSubscribeCommand(opts *rootOptions) *cobra.Command {
	var channelID, guildID uint64

	cmd := &cobra.Command{
		Use:   "subscribe <title>",
		Short: "Subscribe a channel to a release title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts.configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Subscribe(cmd.Context(), args[0], channelID, guildID); err != nil {
				return err
			}
			fmt.Printf("subscribed channel %d (guild %d) to %q\n", channelID, guildID, args[0])
			return nil
		},
	}
	cmd.Flags().Uint64Var(&channelID, "channel", 0, "channel id")
	cmd.Flags().Uint64Var(&guildID, "guild", 0, "guild id")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("guild")
	return cmd
}

func newUnsubscribeCommand(opts *rootOptions) *cobra.Command {
	var channelID uint64

	cmd := &cobra.Command{
		Use:   "unsubscribe <title>",
		Short: "Remove a channel's subscription to a release title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts.configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Unsubscribe(cmd.Context(), args[0], channelID); err != nil {
				return err
			}
			fmt.Printf("unsubscribed channel %d from %q\n", channelID, args[0])
			return nil
		},
	}
	cmd.Flags().Uint64Var(&channelID, "channel", 0, "channel id")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func newSubscriptionsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"ls"},
		Short:   "List all subscriptions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(opts.configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			subs, err := store.ListSubscriptions(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Println("no subscriptions")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tCHANNEL\tGUILD\tCREATED")
			for _, s := range subs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Title, s.ChannelID, s.GuildID, s.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
