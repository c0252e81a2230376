package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/tgflow/pkg/app"
)

// program adapts the tgflow server loop to the service manager.
type program struct {
	run    func(ctx context.Context) error
	onExit func(error)

	cancel context.CancelFunc
	done   chan error
}

// Start implements service.Interface. It must not block.
func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		err := p.run(ctx)
		// An exit the manager did not ask for is fatal.
		if ctx.Err() == nil && p.onExit != nil {
			p.onExit(err)
		}
		p.done <- err
	}()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(_ service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}

func newService(cfgPath string) (service.Service, error) {
	if cfgPath == "" {
		resolved, err := app.ResolveConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = resolved
	}
	abs, err := filepath.Abs(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	prg := &program{
		run: func(ctx context.Context) error {
			return app.Run(ctx, app.RunParams{ConfigPath: abs, Version: version})
		},
	}
	svc, err := service.New(prg, serviceConfig(abs))
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	logger, err := svc.Logger(nil)
	if err != nil {
		return nil, fmt.Errorf("service logger: %w", err)
	}
	prg.onExit = func(err error) {
		if err != nil {
			_ = logger.Errorf("tgflow exited: %v", err)
		}
		os.Exit(1)
	}
	return svc, nil
}

func serviceConfig(cfgPath string) *service.Config {
	return &service.Config{
		Name:        "tgflow",
		DisplayName: "tgflow",
		Description: "Telegram-triggered workflow gateway",
		Arguments:   []string{"service", "run", "--config", cfgPath},
		Option: service.KeyValue{
			"Restart": "on-failure",
		},
	}
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage tgflow as a system service",
	}

	for _, action := range service.ControlAction {
		c := &cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the system service", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := newService(configFlag(cmd))
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "service %s: ok\n", action)
				return nil
			},
		}
		addConfigFlag(c)
		cmd.AddCommand(c)
	}

	run := &cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(configFlag(cmd))
			if err != nil {
				return err
			}
			return svc.Run()
		},
	}
	addConfigFlag(run)
	cmd.AddCommand(run)
	return cmd
}
