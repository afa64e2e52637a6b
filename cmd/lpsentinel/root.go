package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"LPSentinel/internal/config"
	"LPSentinel/internal/logger"
)

type rootFlags struct {
	configPath string
	preset     string
	logLevel   string
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "lpsentinel",
		Short:         "LP pool recommendations with continuous health monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", defaultPath, "path to the YAML config")
	root.PersistentFlags().StringVarP(&flags.preset, "preset", "p", "", "preset name (stable, mid, short)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(runCmd(flags), onceCmd(flags), picksCmd(flags))
	return root.ExecuteContext(ctx)
}

// load reads config and initializes logging. Delivery commands also
// require a notifier.
func (f *rootFlags) load(requireDelivery bool) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.preset)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if f.logLevel != "" {
		level = f.logLevel
	}
	logger.Initialize(level)

	if requireDelivery {
		err = cfg.ValidateDelivery()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
