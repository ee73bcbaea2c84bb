package main

import (
	"github.com/park285/chess-movetable/internal/config"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          "movetable",
		Short:        "Accessible chess move tables rendered as a live view",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	loadConfig := func() (*config.AppConfig, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := obslog.Init(cfg.Log); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(newServeCmd(loadConfig))
	root.AddCommand(newRenderCmd(loadConfig))
	root.AddCommand(newGenCmd())
	return root
}
