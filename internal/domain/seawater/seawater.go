// Package seawater evaluates empirical equations for the physical properties
// of seawater: in-situ density, speed of sound, freezing point and gravity
// acceleration, plus hydrostatic depth/pressure conversion.
//
// Units are fixed for every function in this package:
// temperature in °C, pressure in millibar (absolute), salinity in PSU,
// depth in meters, gravity in m/s² and density in kg/m³.
//
// No function validates its inputs. Out-of-domain values produce
// out-of-domain results and NaN propagates.
package seawater

import "math"

// Reference constants.
const (
	// AtmosphericPressure is the standard sea level pressure, mbar.
	AtmosphericPressure = 1013.25
	// StandardGravity is the conventional gravity acceleration, m/s².
	StandardGravity = 9.80665
	// FreshWaterSalinity is the salinity of fresh water, PSU.
	FreshWaterSalinity = 0.0
	// FreshWaterDensity is a nominal fresh water density, kg/m³.
	FreshWaterDensity = 998.02
	// SeaWaterDensity is a nominal mean seawater density, kg/m³.
	SeaWaterDensity = 1023.6
	// DefaultSoundSpeed is a nominal sound speed in water, m/s.
	DefaultSoundSpeed = 1500.0
	// SoundSpeedMin and SoundSpeedMax bound plausible sound speeds in water, m/s.
	SoundSpeedMin = 1300.0
	SoundSpeedMax = 1800.0
)

// WGS84 gravity formula constants.
const (
	equatorialGravity = 9.7803253359
	somiglianaK       = 0.00193185265241
	eccentricitySq    = 0.00669437999013
)

const mbarPerBar = 1000.0

// Density returns the in-situ density of seawater, kg/m³, using the
// Millero et al. (1980) international equation of state.
func Density(t, p, s float64) float64 {
	p /= mbarPerBar
	sr := math.Sqrt(math.Abs(s))

	sig := (4.8314e-4*s+
		((-1.6546e-6*t+1.0227e-4)*t-5.72466e-3)*sr+
		(((5.3875e-9*t-8.2467e-7)*t+7.6438e-5)*t-4.0899e-3)*t+0.824493)*s +
		((((6.536332e-9*t-1.120083e-6)*t+1.001685e-4)*t-9.095290e-3)*t+6.793952e-2)*t -
		0.157406

	b := ((9.1697e-10*t+2.0816e-8)*t-9.9348e-7)*s +
		(5.2787e-8*t-6.12293e-6)*t + 8.50935e-5

	k0 := (((-5.3009e-4*t+1.6483e-2)*t+7.944e-2)*sr+
		((-6.1670e-5*t+1.09987e-2)*t-0.603459)*t+54.6746)*s +
		(((-5.155288e-5*t+1.360477e-2)*t-2.327105)*t+148.4206)*t +
		19652.21

	a := (1.91075e-4*sr+(-1.6078e-6*t-1.0981e-5)*t+2.2838e-3)*s +
		((-5.77905e-7*t+1.16092e-4)*t+1.43713e-3)*t +
		3.239908

	k := (b*p+a)*p + k0

	return 1000.0 + (k*sig+p*1000.0)/(k-p)
}

// SpeedOfSound returns the speed of sound in seawater, m/s, using the UNESCO
// (Chen and Millero 1977) equation with the Wong and Zhu (1995) refit
// coefficients.
func SpeedOfSound(t, p, s float64) float64 {
	p /= mbarPerBar
	sr := math.Sqrt(math.Abs(s))

	d := 1.727e-3 - 7.9836e-6*p

	b1 := 7.3637e-5 + 1.7945e-7*t
	b0 := -1.922e-2 - 4.42e-5*t
	b := b0 + b1*p

	a3 := (-3.389e-13*t+6.649e-12)*t + 1.100e-10
	a2 := ((7.988e-12*t-1.6002e-10)*t+9.1041e-9)*t - 3.9064e-7
	a1 := (((-2.0122e-10*t+1.0507e-8)*t-6.4885e-8)*t-1.2580e-5)*t + 9.4742e-5
	a0 := (((-3.21e-8*t+2.006e-6)*t+7.164e-5)*t-1.262e-2)*t + 1.389
	a := ((a3*p+a2)*p+a1)*p + a0

	c3 := (-2.3643e-12*t+3.8504e-10)*t - 9.7729e-9
	c2 := (((1.0405e-12*t-2.5335e-10)*t+2.5974e-8)*t-1.7107e-6)*t + 3.1260e-5
	c1 := (((-6.1185e-10*t+1.3621e-7)*t-8.1788e-6)*t+6.8982e-4)*t + 0.153563
	c0 := ((((3.1464e-9*t-1.47800e-6)*t+3.3420e-4)*t-5.80852e-2)*t+5.03711)*t + 1402.388
	c := ((c3*p+c2)*p+c1)*p + c0

	return c + (a+b*sr+d*s)*s
}

// FreezingPoint returns the freezing temperature of seawater, °C, for
// pressure p (mbar) and salinity s (PSU), UNESCO 1983.
func FreezingPoint(p, s float64) float64 {
	return (-0.0575+1.710523e-3*math.Sqrt(math.Abs(s))-2.154996e-4*s)*s - 7.53e-6*p
}

// Gravity returns the WGS84 gravity acceleration, m/s², for phi.
//
// The unit of phi is unspecified: the published formula this follows is
// given a latitude with no stated unit and applies no conversion, and
// phi goes to math.Sin unchanged, so math.Sin treats it as radians.
// Latitudes in degrees must go through GravityAtLatitude instead.
func Gravity(phi float64) float64 {
	sin2 := math.Sin(phi)
	sin2 *= sin2
	return equatorialGravity * (1.0 + somiglianaK*sin2) / math.Sqrt(1.0-eccentricitySq*sin2)
}

// GravityAtLatitude returns the WGS84 gravity acceleration for a latitude in
// signed degrees.
func GravityAtLatitude(deg float64) float64 {
	return Gravity(deg * math.Pi / 180.0)
}

// DepthFromPressure converts absolute pressure p to depth below the surface,
// given surface pressure p0, a column-average density rho and gravity g.
func DepthFromPressure(p, p0, rho, g float64) float64 {
	return 100.0 * (p - p0) / (rho * g)
}

// PressureFromDepth is the inverse of DepthFromPressure.
func PressureFromDepth(h, p0, rho, g float64) float64 {
	return h*rho*g/100.0 + p0
}

// DepthFromPressureCompensated converts pressure to depth using the density
// of water at temperature t and salinity s evaluated at the mid-column
// pressure.
func DepthFromPressureCompensated(p, p0, t, s, g float64) float64 {
	rho := Density(t, p0+(p-p0)/2.0, s)
	return DepthFromPressure(p, p0, rho, g)
}

// SoundSpeedPlausible reports whether v lies within the range of sound
// speeds observed in natural waters.
func SoundSpeedPlausible(v float64) bool {
	return v >= SoundSpeedMin && v <= SoundSpeedMax
}

// State bundles the properties of a water parcel.
type State struct {
	Temperature   float64 `json:"t"`
	Pressure      float64 `json:"p"`
	Salinity      float64 `json:"s"`
	Density       float64 `json:"density"`
	SoundSpeed    float64 `json:"sound_speed"`
	FreezingPoint float64 `json:"freezing_point"`
	Frozen        bool    `json:"frozen"`
}

// Properties evaluates all parcel properties at once.
func Properties(t, p, s float64) State {
	tf := FreezingPoint(p, s)
	return State{
		Temperature:   t,
		Pressure:      p,
		Salinity:      s,
		Density:       Density(t, p, s),
		SoundSpeed:    SpeedOfSound(t, p, s),
		FreezingPoint: tf,
		Frozen:        t < tf,
	}
}
