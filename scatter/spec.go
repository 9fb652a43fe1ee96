// Package scatter plans constrained object placements over a surface.
package scatter

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/noise"
)

// ObjectKind selects how an accepted placement is materialized.
type ObjectKind uint8

const (
	StandaloneInstance      ObjectKind = iota + 1 // Scene object per placement
	TerrainNativeVegetation                       // Terrain-owned vegetation record
	BatchedInstance                               // Raw mesh/material transform for instancing
)

var kindNames = map[ObjectKind]string{
	StandaloneInstance:      "standalone",
	TerrainNativeVegetation: "vegetation",
	BatchedInstance:         "batched",
}

func (k ObjectKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k ObjectKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ErrUnknownKind is returned when parsing an undeclared kind name.
var ErrUnknownKind = errors.New("scatter: unknown object kind")

// ParseObjectKind maps a configuration name to its kind.
func ParseObjectKind(s string) (ObjectKind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// UnmarshalText lets YAML configs name kinds.
func (k *ObjectKind) UnmarshalText(b []byte) error {
	parsed, err := ParseObjectKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText writes the configuration name.
func (k ObjectKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w (%d)", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// Prefab is an opaque asset handle: a mesh, its materials and optional
// cluster children positioned relative to the root.
type Prefab struct {
	Name      string   `yaml:"name"`
	Mesh      string   `yaml:"mesh"`
	Materials []string `yaml:"materials"`
	Children  []Child  `yaml:"children"`
}

// Child is one member of a prefab hierarchy.
type Child struct {
	Name   string `yaml:"name"`
	Offset r3.Vec `yaml:"offset"`
}

// PlacementSpec configures one object group. Specs are read-only once
// planning starts; candidates keep a pointer to their spec.
type PlacementSpec struct {
	Name    string
	Prefabs []*Prefab
	Kind    ObjectKind

	CellSize     float64 // Grid step in world units
	RandomOffset float64 // Max XZ jitter around each cell
	MinScale     float64
	MaxScale     float64
	YOffset      float64 // Pushes placements into the ground

	UseSurfaceNormal bool
	IsStatic         bool
	ClusterChildren  bool

	MinSlope, MaxSlope   float64 // Surface angle in degrees, [0,90]
	MinHeight, MaxHeight float64 // Normalized terrain height, [0,1]
	SurfaceTag           string  // Empty accepts any surface

	Seed             int64 // Jitter, scale and yaw sequence
	Noise            noise.Config
	MinNoiseStrength float64
	NoiseMultiplier  float64
	InvertNoise      bool

	// PoolTag routes standalone placements into the pooling grid instead
	// of emitting them.
	PoolTag string
}

// Configuration errors.
var (
	ErrEmptyPrefabs  = errors.New("scatter: spec has no prefabs")
	ErrCellSize      = errors.New("scatter: cell size must be > 0")
	ErrInvertedRange = errors.New("scatter: range minimum exceeds maximum")
	ErrSlopeRange    = errors.New("scatter: slope angles must be in [0,90]")
)

// Validate rejects specs that cannot be planned.
func (s *PlacementSpec) Validate() error {
	if len(s.Prefabs) == 0 {
		return ErrEmptyPrefabs
	}
	for i, p := range s.Prefabs {
		if p == nil {
			return fmt.Errorf("scatter: prefab %d is nil", i)
		}
	}
	if s.CellSize <= 0 {
		return fmt.Errorf("%w (got %g)", ErrCellSize, s.CellSize)
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w (%d)", ErrUnknownKind, uint8(s.Kind))
	}
	if s.MinSlope < 0 || s.MaxSlope > 90 {
		return fmt.Errorf("%w (got %g..%g)", ErrSlopeRange, s.MinSlope, s.MaxSlope)
	}
	if s.MinSlope > s.MaxSlope {
		return fmt.Errorf("%w: slope %g > %g", ErrInvertedRange, s.MinSlope, s.MaxSlope)
	}
	if s.MinHeight > s.MaxHeight {
		return fmt.Errorf("%w: height %g > %g", ErrInvertedRange, s.MinHeight, s.MaxHeight)
	}
	if s.MinScale > s.MaxScale {
		return fmt.Errorf("%w: scale %g > %g", ErrInvertedRange, s.MinScale, s.MaxScale)
	}
	return s.Noise.Validate()
}

// SlopeBounds converts the angle range into bounds on the vertical normal
// component, expressed as 1 - angle/90 (1 is flat).
func (s *PlacementSpec) SlopeBounds() (lo, hi float64) {
	return 1 - s.MaxSlope/90, 1 - s.MinSlope/90
}
