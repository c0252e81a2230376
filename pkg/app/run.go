// Package app assembles and runs tgflow from a configuration file.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flemzord/tgflow/internal/config"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version is injected at build time via ldflags and logged at startup.
	Version string

	Options Options
}

// LoadConfig resolves, loads and validates the configuration. An empty path
// triggers ResolveConfigPath.
func LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Run loads configuration, starts every component, and blocks until ctx is
// cancelled or SIGINT/SIGTERM is received.
func Run(ctx context.Context, params RunParams) error {
	cfg, cfgPath, err := LoadConfig(params.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := params.Options
	opts.ConfigPath = cfgPath
	stack, err := Build(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close(context.WithoutCancel(ctx)) }()

	application, err := stack.App()
	if err != nil {
		return err
	}

	stack.Logger.Info("tgflow starting",
		"version", params.Version,
		"config", cfgPath,
		"workflows", len(cfg.Workflows),
		"store", cfg.Store.Driver,
	)
	return application.Run(ctx)
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/tgflow/tgflow.yaml → ~/.config/tgflow/tgflow.yaml → ./tgflow.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "tgflow", "tgflow.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "tgflow", "tgflow.yaml"))
	}

	candidates = append(candidates, "tgflow.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}

// DefaultConfigPath is where `tgflow init` writes by default.
func DefaultConfigPath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return filepath.Join(xdg, "tgflow", "tgflow.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "tgflow", "tgflow.yaml")
	}
	return "tgflow.yaml"
}
