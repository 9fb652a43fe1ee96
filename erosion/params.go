package erosion

import (
	"errors"
	"fmt"
)

// Params holds the droplet simulation parameters.
type Params struct {
	NumberOfDroplets int     `yaml:"droplets"`
	Inertia          float32 `yaml:"inertia"`           // [0,1], 1 keeps the old direction
	DepositionSpeed  float32 `yaml:"deposition_speed"`  // [0,1]
	ErosionSpeed     float32 `yaml:"erosion_speed"`     // [0,1]
	EvaporationSpeed float32 `yaml:"evaporation_speed"` // [0,1]
	SedimentCapacity float32 `yaml:"sediment_capacity"` // Capacity factor
	MaxDropletPath   int     `yaml:"max_droplet_path"`  // Step cap per droplet
	ErosionRadius    int     `yaml:"erosion_radius"`    // Brush radius in cells, 0 disables carving
	MinimumSlope     float32 `yaml:"minimum_slope"`
	Gravity          float32 `yaml:"gravity"`
	Seed             int64   `yaml:"seed"`
}

// ErrParams wraps every parameter validation failure.
var ErrParams = errors.New("erosion: invalid parameters")

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.NumberOfDroplets < 0 {
		return fmt.Errorf("%w: droplets must be >= 0 (got %d)", ErrParams, p.NumberOfDroplets)
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"inertia", p.Inertia},
		{"deposition_speed", p.DepositionSpeed},
		{"erosion_speed", p.ErosionSpeed},
		{"evaporation_speed", p.EvaporationSpeed},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1] (got %g)", ErrParams, f.name, f.v)
		}
	}
	if p.MaxDropletPath < 0 {
		return fmt.Errorf("%w: max_droplet_path must be >= 0 (got %d)", ErrParams, p.MaxDropletPath)
	}
	if p.ErosionRadius < 0 {
		return fmt.Errorf("%w: erosion_radius must be >= 0 (got %d)", ErrParams, p.ErosionRadius)
	}
	return nil
}

// Subtle gives gentle weathering on otherwise pristine terrain.
func Subtle() Params {
	return Params{
		NumberOfDroplets: 20000,
		Inertia:          0.05, // Droplets follow terrain closely
		DepositionSpeed:  0.1,
		ErosionSpeed:     0.1,
		EvaporationSpeed: 0.02, // Short droplet lifetime
		SedimentCapacity: 2,
		MaxDropletPath:   30,
		ErosionRadius:    2,
		MinimumSlope:     0.001,
		Gravity:          2,
	}
}

// Average gives balanced, natural-looking channels.
func Average() Params {
	return Params{
		NumberOfDroplets: 70000,
		Inertia:          0.1,
		DepositionSpeed:  0.3,
		ErosionSpeed:     0.3,
		EvaporationSpeed: 0.01,
		SedimentCapacity: 4,
		MaxDropletPath:   64,
		ErosionRadius:    3,
		MinimumSlope:     0.01,
		Gravity:          4,
	}
}

// Heavy carves deep valleys with long-lived droplets.
func Heavy() Params {
	return Params{
		NumberOfDroplets: 200000,
		Inertia:          0.3, // Smoother channels
		DepositionSpeed:  0.2,
		ErosionSpeed:     0.7, // Aggressive erosion
		EvaporationSpeed: 0.005,
		SedimentCapacity: 8,
		MaxDropletPath:   120,
		ErosionRadius:    4,
		MinimumSlope:     0.01,
		Gravity:          10,
	}
}

// Preset returns the named parameter set.
func Preset(name string) (Params, error) {
	switch name {
	case "subtle":
		return Subtle(), nil
	case "average":
		return Average(), nil
	case "heavy":
		return Heavy(), nil
	default:
		return Params{}, fmt.Errorf("erosion: unknown preset %q", name)
	}
}
