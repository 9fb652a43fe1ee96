package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/landgen/grid"
)

// Offset spreads used when drawing seeded sample offsets.
const (
	TerrainOffsetSpread = 10000
	MaskOffsetSpread    = 1000
)

// Config holds the fractal noise parameters.
type Config struct {
	Octaves     int     `yaml:"octaves"`     // Layers of noise (>= 1)
	Persistence float64 `yaml:"persistence"` // Weight multiplier per octave, [0,1]
	Lacunarity  float64 `yaml:"lacunarity"`  // Scale multiplier per octave, >= 0
	Scale       float64 `yaml:"scale"`       // Base scale of the first octave
	Seed        int64   `yaml:"seed"`
	OffsetX     float64 `yaml:"offset_x"` // Added to every sample position
	OffsetZ     float64 `yaml:"offset_z"`
	// Normalization multiplies every octave before the curve (0 means 1).
	Normalization float64 `yaml:"height_normalization"`
	Backend       string  `yaml:"backend"`

	// Curve maps raw noise to stored values. Nil selects Clamp01.
	Curve Curve `yaml:"-"`
}

// Validation errors.
var (
	ErrOctaves     = errors.New("noise: octaves must be >= 1")
	ErrPersistence = errors.New("noise: persistence must be in [0,1]")
	ErrLacunarity  = errors.New("noise: lacunarity must be >= 0")
)

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	if c.Octaves < 1 {
		return fmt.Errorf("%w (got %d)", ErrOctaves, c.Octaves)
	}
	if c.Persistence < 0 || c.Persistence > 1 {
		return fmt.Errorf("%w (got %g)", ErrPersistence, c.Persistence)
	}
	if c.Lacunarity < 0 {
		return fmt.Errorf("%w (got %g)", ErrLacunarity, c.Lacunarity)
	}
	return nil
}

// Generator accumulates octaves of a seeded source.
type Generator struct {
	cfg   Config
	src   Source
	curve Curve
}

// NewGenerator validates cfg and builds its noise source.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := NewSource(cfg.Backend, cfg.Seed)
	if err != nil {
		return nil, err
	}
	if cfg.Normalization == 0 {
		cfg.Normalization = 1
	}
	curve := cfg.Curve
	if curve == nil {
		curve = Clamp01{}
	}
	return &Generator{cfg: cfg, src: src, curve: curve}, nil
}

// Config returns the generator's effective configuration.
func (g *Generator) Config() Config { return g.cfg }

// Raw returns the un-curved fractal sum at normalized coordinates (u, v),
// offset by (ox, oz).
func (g *Generator) Raw(ox, oz, u, v float64) float64 {
	scale := g.cfg.Scale
	weight := 1.0
	sum := 0.0
	for o := 0; o < g.cfg.Octaves; o++ {
		sx := ox + u*scale
		sz := oz + v*scale
		sum += g.src.Sample(sx, sz) * weight * g.cfg.Normalization

		weight *= g.cfg.Persistence
		scale *= g.cfg.Lacunarity
	}
	return sum
}

// Fill writes curve-mapped samples into f. Coordinates are normalized by span
// (the terrain edge length) so neighbouring fields line up.
func (g *Generator) Fill(f *grid.Field, offsetX, offsetZ float64, span int) {
	g.FillAt(f, offsetX, offsetZ, 0, 0, span)
}

// FillAt is Fill for a field whose first sample sits at grid position
// (startX, startZ) of a larger plane.
func (g *Generator) FillAt(f *grid.Field, offsetX, offsetZ float64, startX, startZ, span int) {
	if span <= 0 {
		span = f.W
	}
	ox := offsetX + g.cfg.OffsetX
	oz := offsetZ + g.cfg.OffsetZ
	inv := 1 / float64(span)

	data := f.Data()
	for z := 0; z < f.H; z++ {
		v := float64(startZ+z) * inv
		for x := 0; x < f.W; x++ {
			u := float64(startX+x) * inv
			data[z*f.W+x] = float32(g.curve.Evaluate(g.Raw(ox, oz, u, v)))
		}
	}
}

// Generate synthesizes a width x height field. Identical arguments produce
// bit-identical fields.
func Generate(width, height int, offsetX, offsetZ float64, cfg Config) (*grid.Field, error) {
	g, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	f := grid.New(width, height)
	g.Fill(f, offsetX, offsetZ, width)
	return f, nil
}

// DrawOffset returns a reproducible integer offset pair in [-spread, spread)
// drawn from seed.
func DrawOffset(seed int64, spread int) (x, z float64) {
	rng := rand.New(rand.NewSource(seed))
	return drawOffset(rng, spread)
}

func drawOffset(rng *rand.Rand, spread int) (x, z float64) {
	if spread <= 0 {
		return 0, 0
	}
	x = float64(rng.Intn(2*spread) - spread)
	z = float64(rng.Intn(2*spread) - spread)
	return x, z
}

// MaskOptions shapes a scatter-filter mask.
type MaskOptions struct {
	Multiplier float64 // 0 means 1
	Invert     bool
}

// ScatterMask builds a placement-strength mask independent of any terrain
// field. cfg.Seed drives both the source and the sample offset, so a mask
// is reproducible from its config alone. span normalizes coordinates.
func ScatterMask(width, height, span int, cfg Config, opts MaskOptions) (*grid.Field, error) {
	cfg.Curve = identity{}
	g, err := NewGenerator(cfg)
	if err != nil {
		return nil, err
	}
	ox, oz := DrawOffset(cfg.Seed, MaskOffsetSpread)

	mult := opts.Multiplier
	if mult == 0 {
		mult = 1
	}

	f := grid.New(width, height)
	g.Fill(f, ox, oz, span)

	data := f.Data()
	for i, v := range data {
		v *= float32(mult)
		if opts.Invert {
			v = 1 - v
		}
		data[i] = v
	}
	return f, nil
}

// identity passes raw sums through unchanged.
type identity struct{}

func (identity) Evaluate(v float64) float64 { return v }
func (identity) Range() (float64, float64)  { return math.Inf(-1), math.Inf(1) }
