package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flemzord/tgflow/pkg/app"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Inspect and manage a workflow's Telegram webhook",
	}

	status := &cobra.Command{
		Use:   "status <workflow>",
		Short: "Show whether the webhook points at this host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd, func(ctx context.Context, stack *app.Stack) error {
				registered, urls, err := stack.Host.CheckWebhook(ctx, args[0])
				if err != nil {
					return err
				}
				state := "not registered"
				if registered {
					state = "registered"
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s\n", args[0], state)
				for _, u := range urls {
					fmt.Fprintf(out, "  %s\n", u)
				}
				return nil
			})
		},
	}

	register := &cobra.Command{
		Use:   "register <workflow>",
		Short: "Register the webhook with Telegram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd, func(ctx context.Context, stack *app.Stack) error {
				if err := stack.Host.Activate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: webhook registered\n", args[0])
				return nil
			})
		},
	}

	unregister := &cobra.Command{
		Use:   "unregister <workflow>",
		Short: "Remove the webhook from Telegram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd, func(ctx context.Context, stack *app.Stack) error {
				if err := stack.Host.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: webhook unregistered\n", args[0])
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{status, register, unregister} {
		addConfigFlag(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Credential management",
	}
	test := &cobra.Command{
		Use:   "test <name>",
		Short: "Verify a configured credential against the Bot API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd, func(ctx context.Context, stack *app.Stack) error {
				if err := stack.Host.TestCredential(ctx, args[0]); err != nil {
					return fmt.Errorf("credential %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", args[0])
				return nil
			})
		},
	}
	addConfigFlag(test)
	cmd.AddCommand(test)
	return cmd
}
