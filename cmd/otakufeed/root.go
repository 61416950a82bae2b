package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "otakufeed",
		Short:         "Release feed notification daemon",
		Long:          "otakufeed connects to an upstream release feed, filters and resolves events against the subscription store, and queues notifications for delivery.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "./config.yaml", "path to the config file (YAML or JSON)")

	root.AddCommand(
		newRunCommand(opts),
		newSubscribeCommand(opts),
		newUnsubscribeCommand(opts),
		newSubscriptionsCommand(opts),
	)
	return root
}
