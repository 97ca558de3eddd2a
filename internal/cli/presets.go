package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/types"
)

func newPresetsCmd(out *output) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in TS profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets := profile.Presets()
			infos := make([]types.ProfileInfo, 0, len(presets))
			for _, p := range presets {
				sum, err := profile.Summarize(p.Samples)
				if err != nil {
					return fmt.Errorf("preset %s: %w", p.ID, err)
				}
				infos = append(infos, types.ProfileInfo{ID: p.ID, Name: p.Name, Latitude: p.Latitude, Summary: sum})
			}

			if *out.json {
				return out.print(cmd, infos, "")
			}
			for _, info := range infos {
				cmd.Printf("%-16s %-16s lat %6.1f  %3d samples  %4.0f..%.0f m  surface %.2f °C  bottom %.2f °C\n",
					info.ID, info.Name, info.Latitude, info.Summary.Samples, info.Summary.MinDepth,
					info.Summary.MaxDepth, info.Summary.SurfaceT, info.Summary.BottomT)
			}
			return nil
		},
	}
}
