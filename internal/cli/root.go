// Package cli implements the phx command line tool: local property and
// solver calculations plus batch submission to a running hydrophys server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/pkg/logger"
)

// NewRootCmd builds the phx command tree. Each call returns independent
// commands and flag state.
func NewRootCmd() *cobra.Command {
	var (
		asJSON   bool
		logLevel string
	)

	root := &cobra.Command{
		Use:   "phx",
		Short: "Seawater properties and TS-profile solvers",
		Long: `phx evaluates seawater properties and solves depth and acoustic
path length over temperature/salinity profiles.

Units: temperature °C, pressure mbar (absolute), salinity PSU,
depth m, gravity m/s², time of flight s.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), false); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "output results as JSON")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	out := &output{json: &asJSON}
	root.AddCommand(
		newDensityCmd(out),
		newSoundCmd(out),
		newFreezeCmd(out),
		newGravityCmd(out),
		newDepthCmd(out),
		newPathCmd(out),
		newPresetsCmd(out),
		newSubmitCmd(out),
		newLoadCmd(out),
	)
	return root
}

// Execute runs the phx command tree with args taken from the process.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// output renders results either as text or JSON depending on --json.
type output struct {
	json *bool
}

func (o *output) print(cmd *cobra.Command, v any, text string, args ...any) error {
	if *o.json {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf(text+"\n", args...)
	return nil
}
