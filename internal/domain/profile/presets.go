package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Named is a profile stored under an identifier, together with the latitude
// it was taken at.
type Named struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Latitude float64 `json:"latitude"`
	Samples  Profile `json:"samples"`
}

// Validate checks the profile and its metadata.
func (n Named) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrEmptyName
	}
	if n.Latitude < -90 || n.Latitude > 90 || !finite(n.Latitude) {
		return fmt.Errorf("%w: got %g", ErrLatitude, n.Latitude)
	}
	return n.Samples.Validate()
}

// Clone returns a deep copy.
func (n Named) Clone() Named {
	n.Samples = n.Samples.Clone()
	return n
}

// Preset identifiers.
const (
	PresetNorthPacific  = "north-pacific"
	PresetArctic        = "arctic"
	PresetSouthAtlantic = "south-atlantic"
)

// regular builds a profile with samples every step meters from the surface.
func regular(step float64, ts, ss []float64) Profile {
	p := make(Profile, len(ts))
	for i := range ts {
		p[i] = Sample{Z: float64(i) * step, T: ts[i], S: ss[i]}
	}
	return p
}

func northPacific() Named {
	return Named{
		ID:       PresetNorthPacific,
		Name:     "North Pacific",
		Latitude: 39,
		Samples: regular(500,
			[]float64{12.0, 7.0, 3.0, 2.5, 2.0, 1.9, 1.8, 1.8, 1.8, 1.8, 1.8, 1.9, 1.9},
			[]float64{33.8, 34.0, 34.25, 34.5, 34.6, 34.65, 34.65, 34.66, 34.67, 34.67, 34.67, 34.67, 34.67},
		),
	}
}

func arctic() Named {
	return Named{
		ID:       PresetArctic,
		Name:     "Arctic",
		Latitude: 89,
		Samples: regular(100,
			[]float64{-1.8, -1.1, 1.1, 1.3, 1.1, 0.75, 0.4, 0.2, -0.1},
			[]float64{32.8, 34.25, 34.8, 34.9, 34.9, 34.9, 34.9, 34.9, 34.9},
		),
	}
}

func southAtlantic() Named {
	return Named{
		ID:       PresetSouthAtlantic,
		Name:     "South Atlantic",
		Latitude: -20,
		Samples: regular(200,
			[]float64{
				25.6, 20.0, 11.5, 6.5, 4.0, 3.0, 3.0, 3.0, 2.9, 2.8,
				2.8, 2.7, 2.5, 2.4, 2.3, 2.2, 2.1, 2.1, 2.1, 2.0,
				1.9, 1.8, 1.7, 1.6, 1.5, 1.3, 1.2, 1.1, 1.1,
			},
			[]float64{
				37.2, 36.2, 35.0, 34.4, 34.4, 34.4, 34.7, 34.8, 34.9, 34.9,
				34.9, 34.9, 34.9, 34.9, 34.9, 34.9, 34.8, 34.7, 34.7, 34.7,
				34.7, 34.7, 34.7, 34.7, 34.7, 34.7, 34.7, 34.7, 34.7,
			},
		),
	}
}

var presets = map[string]func() Named{
	PresetNorthPacific:  northPacific,
	PresetArctic:        arctic,
	PresetSouthAtlantic: southAtlantic,
}

// Preset returns a fresh copy of a built-in profile.
func Preset(id string) (Named, bool) {
	fn, ok := presets[id]
	if !ok {
		return Named{}, false
	}
	return fn(), true
}

// Presets returns every built-in profile ordered by identifier.
func Presets() []Named {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Named, 0, len(ids))
	for _, id := range ids {
		out = append(out, presets[id]())
	}
	return out
}
