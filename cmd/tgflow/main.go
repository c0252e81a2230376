// Package main is the entry point for the tgflow CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/tgflow/internal/config"
	"github.com/flemzord/tgflow/internal/core"
	"github.com/flemzord/tgflow/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tgflow",
		Short:         "Telegram-triggered workflows behind a single webhook gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		versionCmd(),
		startCmd(),
		configCmd(),
		initCmd(),
		webhookCmd(),
		credentialCmd(),
		serviceCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled node types",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tgflow %s (commit: %s, built: %s)\n", version, commit, date)

			nodes := core.Nodes()
			if len(nodes) == 0 {
				fmt.Fprintln(out, "\nNo compiled node types.")
				return
			}
			fmt.Fprintln(out, "\nNode types:")
			for _, n := range nodes {
				fmt.Fprintf(out, "  %s\n", n.Name)
			}
			fmt.Fprintln(out, "\nCredential types:")
			for _, c := range core.Credentials() {
				fmt.Fprintf(out, "  %s\n", c.Name)
			}
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Register webhooks and serve configured workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.RunParams{
				ConfigPath: configFlag(cmd),
				Version:    version,
			})
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			active := config.ActiveWorkflows(cfg)
			fmt.Fprintf(out, "Configuration OK (%d workflows, %d active)\n", len(cfg.Workflows), len(active))
			for _, w := range active {
				fmt.Fprintf(out, "  %s (%s, %d nodes)\n", w.ID, w.Trigger.Type, len(w.Nodes))
			}
			return nil
		},
	})
	return cmd
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
}

func configFlag(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// withHost loads the configuration and builds a host for one-shot commands.
func withHost(cmd *cobra.Command, fn func(ctx context.Context, stack *app.Stack) error) error {
	cfg, _, err := app.LoadConfig(configFlag(cmd))
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	stack, err := app.BuildHost(ctx, cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close(context.WithoutCancel(ctx)) }()
	return fn(ctx, stack)
}
