package main

import (
	"fmt"
	"os"

	"github.com/park285/chess-movetable/internal/app"
	"github.com/park285/chess-movetable/internal/config"
	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/spf13/cobra"
)

func newRenderCmd(loadConfig func() (*config.AppConfig, error)) *cobra.Command {
	var viewNames []string
	cmd := &cobra.Command{
		Use:   "render <dataset.json>",
		Short: "Render a dataset file to a static HTML page on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(viewNames) > 0 {
				cfg.Views = viewNames
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read dataset: %w", err)
			}
			ds, err := movedata.Decode(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			page, err := app.RenderStatic(cfg, ds)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), page)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&viewNames, "views", nil, "views to render, in order")
	return cmd
}
