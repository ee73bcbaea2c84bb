package main

import (
	"github.com/park285/chess-movetable/internal/app"
	"github.com/park285/chess-movetable/internal/config"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(loadConfig func() (*config.AppConfig, error)) *cobra.Command {
	var listen, watch string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live view over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer obslog.Sync()
			if listen != "" {
				cfg.ListenAddr = listen
			}
			if watch != "" {
				cfg.WatchFile = watch
			}

			deps, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			obslog.L().Info("serve_start",
				zap.String("addr", cfg.ListenAddr),
				zap.Strings("views", cfg.Views),
				zap.String("dataset", cfg.ResolvedBaseURL()+"/"+cfg.DatasetPath),
			)
			return deps.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides MOVETABLE_LISTEN_ADDR)")
	cmd.Flags().StringVar(&watch, "watch", "", "re-import this file whenever it changes")
	return cmd
}
