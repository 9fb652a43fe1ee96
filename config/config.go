// Package config provides configuration loading and access for landgen.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/landgen/erosion"
	"github.com/pthm-cable/landgen/noise"
	"github.com/pthm-cable/landgen/pool"
	"github.com/pthm-cable/landgen/scatter"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all generation, scatter and pooling parameters.
type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Noise     noise.Config    `yaml:"noise"`
	Erosion   ErosionConfig   `yaml:"erosion"`
	Water     WaterConfig     `yaml:"water"`
	Prefabs   []PrefabConfig  `yaml:"prefabs"`
	Scatter   []SpecConfig    `yaml:"scatter"`
	Pooling   PoolingConfig   `yaml:"pooling"`
	Batching  BatchingConfig  `yaml:"batching"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// TerrainConfig describes the generated terrain.
type TerrainConfig struct {
	Size         int         `yaml:"size"`   // Samples per edge and world size
	Height       float64     `yaml:"height"` // World height of a normalized sample of 1
	Seed         int64       `yaml:"seed"`
	GenerateSeed bool        `yaml:"generate_seed"` // Seed from the clock instead
	Erode        bool        `yaml:"erode"`
	SurfaceTag   string      `yaml:"surface_tag"`
	Curve        []noise.Key `yaml:"curve"` // Response keyframes; empty clamps to [0,1]
	Anchor       bool        `yaml:"anchor"`
}

// ErosionConfig selects erosion parameters. A non-empty preset replaces the
// explicit values; droplets and seed still apply when set.
type ErosionConfig struct {
	Preset         string `yaml:"preset"`
	erosion.Params `yaml:",inline"`
}

// WaterConfig adds a flat tagged surface at a normalized level.
type WaterConfig struct {
	Enabled bool    `yaml:"enabled"`
	Level   float64 `yaml:"level"` // [0,1] of terrain height
	Tag     string  `yaml:"tag"`
}

// PrefabConfig names an opaque mesh and material set.
type PrefabConfig struct {
	Name      string          `yaml:"name"`
	Mesh      string          `yaml:"mesh"`
	Materials []string        `yaml:"materials"`
	Children  []scatter.Child `yaml:"children"`
}

// SpecConfig is one placement spec, referencing prefabs by name.
type SpecConfig struct {
	Name             string             `yaml:"name"`
	Kind             scatter.ObjectKind `yaml:"kind"`
	Prefabs          []string           `yaml:"prefabs"`
	CellSize         float64            `yaml:"cell_size"`
	RandomOffset     float64            `yaml:"random_offset"`
	MinScale         float64            `yaml:"min_scale"`
	MaxScale         float64            `yaml:"max_scale"`
	YOffset          float64            `yaml:"y_offset"`
	UseSurfaceNormal bool               `yaml:"use_surface_normal"`
	IsStatic         bool               `yaml:"is_static"`
	ClusterChildren  bool               `yaml:"cluster_children"`
	MinSlope         float64            `yaml:"min_slope"`
	MaxSlope         float64            `yaml:"max_slope"`
	MinHeight        float64            `yaml:"min_height"`
	MaxHeight        float64            `yaml:"max_height"`
	SurfaceTag       string             `yaml:"surface_tag"`
	Seed             int64              `yaml:"seed"` // 0 derives from the terrain seed
	Noise            noise.Config       `yaml:"noise"`
	MinNoiseStrength float64            `yaml:"min_noise_strength"`
	NoiseMultiplier  float64            `yaml:"noise_multiplier"`
	InvertNoise      bool               `yaml:"invert_noise"`
	PoolTag          string             `yaml:"pool_tag"`
}

// PoolingConfig holds the pooling grid and its pools.
type PoolingConfig struct {
	CellSize float64     `yaml:"cell_size"`
	Pools    []pool.Spec `yaml:"pools"`
}

// BatchingConfig holds instance batching parameters.
type BatchingConfig struct {
	Cap int `yaml:"cap"`
}

// TelemetryConfig holds timing and output parameters.
type TelemetryConfig struct {
	PerfWindow int    `yaml:"perf_window"` // Ticks averaged per perf record
	OutputDir  string `yaml:"output_dir"`  // Empty disables CSV output
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Prefabs     []*scatter.Prefab          // Shared by every spec that names them
	PrefabIndex map[string]*scatter.Prefab // name -> prefab
	Specs       []*scatter.PlacementSpec
	Curve       noise.Curve // Nil when no keyframes are set
	CurveErr    error
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a config from YAML layered over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived resolves prefab references, fills seeds and builds specs.
func (c *Config) computeDerived() {
	d := &c.Derived

	d.Prefabs = make([]*scatter.Prefab, len(c.Prefabs))
	d.PrefabIndex = make(map[string]*scatter.Prefab, len(c.Prefabs))
	for i, p := range c.Prefabs {
		pf := &scatter.Prefab{Name: p.Name, Mesh: p.Mesh, Materials: p.Materials, Children: p.Children}
		d.Prefabs[i] = pf
		d.PrefabIndex[p.Name] = pf
	}

	d.Curve, d.CurveErr = nil, nil
	if len(c.Terrain.Curve) > 0 {
		curve, err := noise.NewKeyframeCurve(c.Terrain.Curve...)
		if err != nil {
			d.CurveErr = err
		} else {
			d.Curve = curve
		}
	}

	d.Specs = make([]*scatter.PlacementSpec, 0, len(c.Scatter))
	for i := range c.Scatter {
		sc := &c.Scatter[i]
		if sc.Seed == 0 {
			sc.Seed = c.Terrain.Seed + int64(i) + 1
		}
		if sc.Noise.Seed == 0 {
			sc.Noise.Seed = sc.Seed
		}
		spec := &scatter.PlacementSpec{
			Name:             sc.Name,
			Kind:             sc.Kind,
			CellSize:         sc.CellSize,
			RandomOffset:     sc.RandomOffset,
			MinScale:         sc.MinScale,
			MaxScale:         sc.MaxScale,
			YOffset:          sc.YOffset,
			UseSurfaceNormal: sc.UseSurfaceNormal,
			IsStatic:         sc.IsStatic,
			ClusterChildren:  sc.ClusterChildren,
			MinSlope:         sc.MinSlope,
			MaxSlope:         sc.MaxSlope,
			MinHeight:        sc.MinHeight,
			MaxHeight:        sc.MaxHeight,
			SurfaceTag:       sc.SurfaceTag,
			Seed:             sc.Seed,
			Noise:            sc.Noise,
			MinNoiseStrength: sc.MinNoiseStrength,
			NoiseMultiplier:  sc.NoiseMultiplier,
			InvertNoise:      sc.InvertNoise,
			PoolTag:          sc.PoolTag,
		}
		for _, name := range sc.Prefabs {
			if pf, ok := d.PrefabIndex[name]; ok {
				spec.Prefabs = append(spec.Prefabs, pf)
			}
		}
		d.Specs = append(d.Specs, spec)
	}
}

// Configuration errors.
var (
	ErrUnknownPrefab = errors.New("config: unknown prefab")
	ErrUnknownPool   = errors.New("config: unknown pool tag")
	ErrInvalid       = errors.New("config: invalid value")
)

// Validate checks every section and returns all problems found.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.Terrain.Size < 2 {
		add(fmt.Errorf("%w: terrain.size must be >= 2 (got %d)", ErrInvalid, c.Terrain.Size))
	}
	if c.Terrain.Height <= 0 {
		add(fmt.Errorf("%w: terrain.height must be > 0 (got %g)", ErrInvalid, c.Terrain.Height))
	}
	add(c.Derived.CurveErr)
	add(c.Noise.Validate())
	if c.Terrain.Erode {
		_, err := c.ErosionParams()
		add(err)
	}
	if c.Water.Enabled && (c.Water.Level < 0 || c.Water.Level > 1) {
		add(fmt.Errorf("%w: water.level must be in [0,1] (got %g)", ErrInvalid, c.Water.Level))
	}

	prefabNames := make([]string, len(c.Prefabs))
	seen := make(map[string]bool, len(c.Prefabs))
	for i, p := range c.Prefabs {
		prefabNames[i] = p.Name
		if seen[p.Name] {
			add(fmt.Errorf("%w: duplicate prefab %q", ErrInvalid, p.Name))
		}
		seen[p.Name] = true
	}

	poolTags := make([]string, len(c.Pooling.Pools))
	for i, p := range c.Pooling.Pools {
		poolTags[i] = p.Tag
		if _, ok := c.Derived.PrefabIndex[p.Prefab]; !ok {
			add(unknown(ErrUnknownPrefab, "pool "+p.Tag, p.Prefab, prefabNames))
		}
		if p.Size <= 0 {
			add(fmt.Errorf("%w: pool %q size must be > 0", ErrInvalid, p.Tag))
		}
	}
	if c.Pooling.CellSize <= 0 || c.Pooling.CellSize > float64(c.Terrain.Size) {
		add(fmt.Errorf("%w: pooling.cell_size must be in (0, terrain.size] (got %g)", ErrInvalid, c.Pooling.CellSize))
	}
	if c.Batching.Cap <= 0 {
		add(fmt.Errorf("%w: batching.cap must be > 0 (got %d)", ErrInvalid, c.Batching.Cap))
	}

	for i, sc := range c.Scatter {
		for _, name := range sc.Prefabs {
			if _, ok := c.Derived.PrefabIndex[name]; !ok {
				add(unknown(ErrUnknownPrefab, "spec "+sc.Name, name, prefabNames))
			}
		}
		if sc.PoolTag != "" && !slices.Contains(poolTags, sc.PoolTag) {
			add(unknown(ErrUnknownPool, "spec "+sc.Name, sc.PoolTag, poolTags))
		}
		if sc.PoolTag != "" && sc.Kind != scatter.StandaloneInstance {
			add(fmt.Errorf("%w: spec %q: pool_tag requires kind standalone", ErrInvalid, sc.Name))
		}
		if i < len(c.Derived.Specs) {
			if err := c.Derived.Specs[i].Validate(); err != nil {
				add(fmt.Errorf("spec %q: %w", sc.Name, err))
			}
		}
	}

	return errors.Join(errs...)
}

func unknown(sentinel error, where, name string, candidates []string) error {
	if hint := scatter.ClosestName(name, candidates); hint != "" {
		return fmt.Errorf("%w %q in %s (did you mean %q?)", sentinel, name, where, hint)
	}
	return fmt.Errorf("%w %q in %s", sentinel, name, where)
}

// ErosionParams resolves the preset, if any, and validates the result.
func (c *Config) ErosionParams() (erosion.Params, error) {
	p := c.Erosion.Params
	if c.Erosion.Preset != "" {
		preset, err := erosion.Preset(c.Erosion.Preset)
		if err != nil {
			return erosion.Params{}, err
		}
		if p.NumberOfDroplets > 0 {
			preset.NumberOfDroplets = p.NumberOfDroplets
		}
		preset.Seed = p.Seed
		p = preset
	}
	return p, p.Validate()
}

// NoiseConfig returns the terrain noise config with the response curve set.
func (c *Config) NoiseConfig() noise.Config {
	n := c.Noise
	n.Curve = c.Derived.Curve
	return n
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
