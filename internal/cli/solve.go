package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/internal/domain/profile"
	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/solver"
	"github.com/okian/hydrophys/internal/domain/types"
)

// solveFlags are shared by the depth and path commands.
type solveFlags struct {
	profileID   string
	profileFile string
	latitude    float64
	gravity     float64
	intervals   int
}

func (f *solveFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profileID, "profile", profile.PresetNorthPacific, "built-in profile id (see 'phx presets')")
	cmd.Flags().StringVar(&f.profileFile, "profile-file", "", "JSON profile: a sample array or {name, latitude, samples}")
	cmd.Flags().Float64Var(&f.latitude, "latitude", 0, "latitude for gravity, degrees (default: the profile's)")
	cmd.Flags().Float64Var(&f.gravity, "gravity", 0, "gravity acceleration, m/s² (overrides --latitude)")
	cmd.Flags().IntVarP(&f.intervals, "intervals", "n", solver.DefaultIntervals, "integration steps")
	cmd.MarkFlagsMutuallyExclusive("profile", "profile-file")
	cmd.MarkFlagsMutuallyExclusive("latitude", "gravity")
}

// resolved is a profile plus the gravity to integrate with.
type resolved struct {
	id      string
	samples profile.Profile
	gravity float64
}

func (f *solveFlags) resolve(cmd *cobra.Command) (resolved, error) {
	var (
		named  profile.Named
		hasLat bool
	)
	if f.profileFile != "" {
		p, lat, err := readProfileFile(f.profileFile)
		if err != nil {
			return resolved{}, err
		}
		named = profile.Named{Samples: p}
		if lat != nil {
			named.Latitude, hasLat = *lat, true
		}
	} else {
		p, ok := profile.Preset(f.profileID)
		if !ok {
			return resolved{}, fmt.Errorf("unknown profile %q", f.profileID)
		}
		named, hasLat = p, true
	}

	r := resolved{id: named.ID, samples: named.Samples, gravity: seawater.StandardGravity}
	switch {
	case cmd.Flags().Changed("gravity"):
		r.gravity = f.gravity
	case cmd.Flags().Changed("latitude"):
		if f.latitude < -90 || f.latitude > 90 {
			return resolved{}, errors.New("latitude must be within [-90, 90]")
		}
		r.gravity = seawater.GravityAtLatitude(f.latitude)
	case hasLat:
		r.gravity = seawater.GravityAtLatitude(named.Latitude)
	}
	return r, nil
}

// readProfileFile loads a profile from JSON. Both a bare sample array and a
// named profile object are accepted; only the latter carries a latitude.
func readProfileFile(path string) (profile.Profile, *float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	var p profile.Profile
	var lat *float64
	if err := json.Unmarshal(data, &p); err != nil {
		var named struct {
			Latitude *float64        `json:"latitude"`
			Samples  profile.Profile `json:"samples"`
		}
		if err2 := json.Unmarshal(data, &named); err2 != nil {
			return nil, nil, fmt.Errorf("parse profile %s: %w", path, err2)
		}
		p, lat = named.Samples, named.Latitude
	}

	if err := p.Validate(); err != nil {
		return nil, nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, lat, nil
}

func newDepthCmd(out *output) *cobra.Command {
	var (
		f        solveFlags
		pressure float64
		surface  float64
	)
	cmd := &cobra.Command{
		Use:   "depth",
		Short: "Depth from absolute pressure over a TS profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			z, err := solver.Depth(pressure, surface, r.gravity, f.intervals, r.samples)
			if err != nil {
				return fmt.Errorf("%s: %w", solver.Reason(err), err)
			}
			res := types.SolveResult{Kind: "depth", Value: z, Unit: "m", Gravity: r.gravity, Intervals: f.intervals, ProfileID: r.id}
			return out.print(cmd, res, "depth: %.3f m", z)
		},
	}
	f.bind(cmd)
	cmd.Flags().Float64VarP(&pressure, "pressure", "p", 0, "absolute pressure at the target, mbar")
	cmd.Flags().Float64Var(&surface, "surface", seawater.AtmosphericPressure, "surface pressure, mbar")
	_ = cmd.MarkFlagRequired("pressure")
	return cmd
}

func newPathCmd(out *output) *cobra.Command {
	var (
		f   solveFlags
		tof float64
	)
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Vertical path length from a one-way acoustic time of flight",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			d, err := solver.Path(tof, r.gravity, f.intervals, r.samples)
			if err != nil {
				return fmt.Errorf("%s: %w", solver.Reason(err), err)
			}
			res := types.SolveResult{Kind: "path", Value: d, Unit: "m", Gravity: r.gravity, Intervals: f.intervals, ProfileID: r.id}
			return out.print(cmd, res, "path: %.3f m", d)
		},
	}
	f.bind(cmd)
	cmd.Flags().Float64Var(&tof, "tof", 0, "one-way time of flight, s")
	_ = cmd.MarkFlagRequired("tof")
	return cmd
}
