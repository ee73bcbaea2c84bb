package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	var centis []int
	cmd := &cobra.Command{
		Use:   "gen [SAN...]",
		Short: "Replay SAN moves and print a dataset JSON document",
		Long:  "Replays the given SAN moves from the initial position. With no arguments the moves are read from stdin, separated by whitespace.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sans := args
			if len(sans) == 0 {
				var err error
				if sans, err = readMoves(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			if len(sans) == 0 {
				return fmt.Errorf("no moves given")
			}
			ds, err := movedata.FromSAN(sans, centis)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ds)
		},
	}
	cmd.Flags().IntSliceVar(&centis, "centis", nil, "move durations in centiseconds, one per move")
	return cmd
}

func readMoves(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		if tok := strings.TrimSpace(sc.Text()); tok != "" {
			out = append(out, tok)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read moves: %w", err)
	}
	return out, nil
}
