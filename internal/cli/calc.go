package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/internal/domain/seawater"
	"github.com/okian/hydrophys/internal/domain/types"
)

// parcel holds the t/p/s flags shared by the property commands.
type parcel struct {
	t, p, s float64
}

func (pc *parcel) bind(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&pc.t, "temperature", "t", 0, "temperature, °C")
	cmd.Flags().Float64VarP(&pc.p, "pressure", "p", seawater.AtmosphericPressure, "absolute pressure, mbar")
	cmd.Flags().Float64VarP(&pc.s, "salinity", "s", 35, "salinity, PSU")
}

func (pc *parcel) properties() types.Properties {
	st := seawater.Properties(pc.t, pc.p, pc.s)
	return types.Properties{
		T:                   pc.t,
		P:                   pc.p,
		S:                   pc.s,
		Density:             st.Density,
		SoundSpeed:          st.SoundSpeed,
		SoundSpeedPlausible: seawater.SoundSpeedPlausible(st.SoundSpeed),
		FreezingPoint:       st.FreezingPoint,
		Frozen:              st.Frozen,
	}
}

func newDensityCmd(out *output) *cobra.Command {
	var pc parcel
	cmd := &cobra.Command{
		Use:   "density",
		Short: "In-situ seawater density, kg/m³",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			props := pc.properties()
			return out.print(cmd, props, "density: %.4f kg/m³", props.Density)
		},
	}
	pc.bind(cmd)
	return cmd
}

func newSoundCmd(out *output) *cobra.Command {
	var pc parcel
	cmd := &cobra.Command{
		Use:   "sound",
		Short: "Speed of sound in seawater, m/s",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			props := pc.properties()
			if !props.SoundSpeedPlausible {
				return out.print(cmd, props, "sound speed: %.3f m/s (outside %g..%g m/s)",
					props.SoundSpeed, seawater.SoundSpeedMin, seawater.SoundSpeedMax)
			}
			return out.print(cmd, props, "sound speed: %.3f m/s", props.SoundSpeed)
		},
	}
	pc.bind(cmd)
	return cmd
}

func newFreezeCmd(out *output) *cobra.Command {
	var pc parcel
	cmd := &cobra.Command{
		Use:   "freeze",
		Short: "Freezing point of seawater, °C",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			props := pc.properties()
			if cmd.Flags().Changed("temperature") && props.Frozen {
				return out.print(cmd, props, "freezing point: %.4f °C (frozen at %.2f °C)", props.FreezingPoint, props.T)
			}
			return out.print(cmd, props, "freezing point: %.4f °C", props.FreezingPoint)
		},
	}
	pc.bind(cmd)
	return cmd
}

func newGravityCmd(out *output) *cobra.Command {
	var lat, phi float64
	cmd := &cobra.Command{
		Use:   "gravity",
		Short: "WGS84 gravity acceleration, m/s²",
		Long: `Gravity acceleration from latitude in degrees (--lat) or from phi
in radians (--phi).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var g types.Gravity
			switch {
			case cmd.Flags().Changed("phi"):
				g = types.Gravity{Phi: phi, Gravity: seawater.Gravity(phi)}
			case cmd.Flags().Changed("lat"):
				if lat < -90 || lat > 90 {
					return errors.New("latitude must be within [-90, 90]")
				}
				g = types.Gravity{Phi: lat, Degrees: true, Gravity: seawater.GravityAtLatitude(lat)}
			default:
				return errors.New("one of --lat or --phi is required")
			}
			return out.print(cmd, g, "gravity: %.6f m/s²", g.Gravity)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude, degrees")
	cmd.Flags().Float64Var(&phi, "phi", 0, "latitude, radians")
	cmd.MarkFlagsMutuallyExclusive("lat", "phi")
	return cmd
}
