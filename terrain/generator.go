package terrain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/landgen/erosion"
	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/noise"
)

// Config describes one terrain.
type Config struct {
	Size         int     // Samples per edge, also the world size
	Height       float64 // World height of a sample of 1
	Seed         int64
	GenerateSeed bool // Draw a time-based seed instead of Seed
	Erode        bool
	Noise        noise.Config
	Erosion      erosion.Params
}

// ErrSize is returned for terrains too small to erode or probe.
var ErrSize = errors.New("terrain: size must be >= 2")

// Result is one generated terrain.
type Result struct {
	Heights *grid.Field
	Erosion *erosion.Result // Nil when erosion is disabled
	Seed    int64
	OffsetX float64
	OffsetZ float64
	Elapsed time.Duration
	Eroding time.Duration // Part of Elapsed spent eroding
}

// Generator runs noise synthesis and optional erosion.
type Generator struct {
	cfg Config
	now func() time.Time
}

// NewGenerator validates cfg.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Size < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrSize, cfg.Size)
	}
	if err := cfg.Noise.Validate(); err != nil {
		return nil, err
	}
	if cfg.Erode {
		if err := cfg.Erosion.Validate(); err != nil {
			return nil, err
		}
	}
	return &Generator{cfg: cfg, now: time.Now}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() Config { return g.cfg }

func (g *Generator) seed() int64 {
	if g.cfg.GenerateSeed {
		return g.now().UnixNano()
	}
	return g.cfg.Seed
}

// Generate draws sample offsets from the seed, synthesizes the field and
// erodes it when enabled.
func (g *Generator) Generate() (Result, error) {
	seed := g.seed()
	ox, oz := noise.DrawOffset(seed, noise.TerrainOffsetSpread)
	res, err := g.generate(seed, ox, oz, 0, 0, g.cfg.Erode)
	if err != nil {
		return Result{}, err
	}
	slog.Info("generated height field",
		"size", g.cfg.Size,
		"seed", seed,
		"eroded", g.cfg.Erode,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}

// GenerateChunk synthesizes the neighbouring tile (cx, cz) of a terrain
// previously generated with base. Tiles share their edge samples. Chunks
// are never eroded.
func (g *Generator) GenerateChunk(base Result, cx, cz int) (Result, error) {
	n := g.cfg.Size - 1
	res, err := g.generate(base.Seed, base.OffsetX, base.OffsetZ, cx*n, cz*n, false)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("generated chunk", "cx", cx, "cz", cz, "elapsed_ms", res.Elapsed.Milliseconds())
	return res, nil
}

func (g *Generator) generate(seed int64, ox, oz float64, startX, startZ int, erode bool) (Result, error) {
	start := g.now()

	cfg := g.cfg.Noise
	cfg.Seed = seed
	gen, err := noise.NewGenerator(cfg)
	if err != nil {
		return Result{}, err
	}
	heights := grid.NewSquare(g.cfg.Size)
	gen.FillAt(heights, ox, oz, startX, startZ, g.cfg.Size-1)

	res := Result{Heights: heights, Seed: seed, OffsetX: ox, OffsetZ: oz}
	if erode {
		p := g.cfg.Erosion
		if p.Seed == 0 {
			p.Seed = seed
		}
		erodeStart := g.now()
		sim, err := erosion.New(p)
		if err != nil {
			return Result{}, err
		}
		er, err := sim.Erode(heights, g.cfg.Size)
		if err != nil {
			return Result{}, fmt.Errorf("eroding terrain: %w", err)
		}
		res.Erosion = &er
		res.Eroding = g.now().Sub(erodeStart)
	}
	res.Elapsed = g.now().Sub(start)
	return res, nil
}

// Apply hands r to sink. An eroded terrain binds both masks; otherwise an
// empty erosion mask is bound alone.
func (g *Generator) Apply(sink Sink, r Result) {
	sink.SetHeights(r.Heights, float64(g.cfg.Size), g.cfg.Height)
	if r.Erosion != nil {
		sink.ApplyMaterialMask(r.Erosion.ErosionMask, r.Erosion.DepositionMask)
		return
	}
	sink.ApplyMaterialMask(grid.NewSquare(g.cfg.Size), nil)
}
