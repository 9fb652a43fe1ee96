package scatter

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/noise"
)

// Child probes start this far above the child and reach this far down.
const (
	childProbeLift  = 10.0
	childProbeReach = 100.0
)

// Transform is a position, euler rotation in degrees and per-axis scale.
type Transform struct {
	Position r3.Vec
	Rotation r3.Vec
	Scale    r3.Vec
}

// Candidate is one accepted placement.
type Candidate struct {
	Transform
	Kind   ObjectKind
	Spec   *PlacementSpec
	Prefab *Prefab

	Normal           r3.Vec
	NoiseValue       float64
	NormalizedHeight float64

	// Children holds re-probed cluster members (standalone only).
	Children []Transform
	// Vegetation is set for TerrainNativeVegetation candidates.
	Vegetation *VegetationInstance
	// PoolTag is copied from the spec; tagged candidates are not emitted.
	PoolTag string
}

// VegetationInstance is a terrain-owned placement with its position
// normalized by the terrain size.
type VegetationInstance struct {
	Position    r3.Vec
	Prototype   int
	Rotation    float64 // Yaw in degrees
	WidthScale  float64
	HeightScale float64
}

// Instance is a raw mesh placement awaiting batching.
type Instance struct {
	Mesh      string
	Materials []string
	Transform
}

// Handle identifies an emitted standalone object.
type Handle uint64

// Emitter materializes standalone placements.
type Emitter interface {
	Emit(c *Candidate) Handle
	Remove(h Handle)
}

// VegetationSink receives every vegetation record of a plan in one call.
type VegetationSink interface {
	SetVegetationInstances(prototypes []*Prefab, instances []VegetationInstance)
}

// InstanceConsumer receives every batched instance of a plan in one call.
type InstanceConsumer interface {
	ConsumeInstances(instances []Instance)
}

// Anchor is moved onto the terrain center before scattering.
type Anchor interface {
	SetPosition(p r3.Vec)
}

// Options wires the planner's collaborators. Any of them may be nil; specs
// whose kind needs a missing collaborator are skipped with a warning.
type Options struct {
	Emitter    Emitter
	Vegetation VegetationSink
	Instances  InstanceConsumer
	Anchor     Anchor
	Prototypes PrototypeRegistry // Defaults to a PrototypeTable
	Layers     LayerMask         // Defaults to AllLayers
	// TerrainSize normalizes vegetation positions; zero uses the bounds.
	TerrainSize r3.Vec
}

// Planner turns placement specs into candidates and routes them.
type Planner struct {
	opts Options

	emitted    []Handle
	vegetation []VegetationInstance
	instances  []Instance
}

// NewPlanner creates a planner.
func NewPlanner(opts Options) *Planner {
	if opts.Prototypes == nil {
		opts.Prototypes = &PrototypeTable{}
	}
	if opts.Layers == 0 {
		opts.Layers = AllLayers
	}
	return &Planner{opts: opts}
}

// Prototypes returns the registry used for vegetation.
func (p *Planner) Prototypes() PrototypeRegistry { return p.opts.Prototypes }

// Emitted returns the handles of standalone objects from the last plan.
func (p *Planner) Emitted() []Handle { return p.emitted }

// Retract removes every standalone object and vegetation record emitted by
// the previous plan.
func (p *Planner) Retract() {
	if p.opts.Emitter != nil {
		for _, h := range p.emitted {
			p.opts.Emitter.Remove(h)
		}
	}
	p.emitted = p.emitted[:0]
	p.vegetation = p.vegetation[:0]
	p.instances = p.instances[:0]
	if p.opts.Vegetation != nil {
		p.opts.Vegetation.SetVegetationInstances(nil, nil)
	}
}

// Plan retracts the previous plan, then scatters every spec over bounds.
// Invalid specs are skipped with a warning; the rest are still planned.
func (p *Planner) Plan(bounds Bounds, q SurfaceQuery, specs []*PlacementSpec) []Candidate {
	p.Retract()

	if q == nil {
		slog.Warn("no surface query set, nothing scattered")
		return nil
	}

	p.registerPrototypes(specs)
	p.placeAnchor(bounds, q)

	if len(specs) == 0 {
		slog.Warn("no placement specs set")
		return nil
	}

	var out []Candidate
	for _, spec := range specs {
		if !p.usable(spec) {
			continue
		}
		out = p.scatterSpec(out, bounds, q, spec)
	}

	if p.opts.Vegetation != nil && len(p.vegetation) > 0 {
		p.opts.Vegetation.SetVegetationInstances(p.prototypeList(), p.vegetation)
	}
	if p.opts.Instances != nil && len(p.instances) > 0 {
		p.opts.Instances.ConsumeInstances(p.instances)
	}

	slog.Info("scatter finished",
		"candidates", len(out),
		"standalone", len(p.emitted),
		"vegetation", len(p.vegetation),
		"batched", len(p.instances),
	)
	return out
}

// usable validates spec and checks the collaborator its kind needs.
func (p *Planner) usable(spec *PlacementSpec) bool {
	if err := spec.Validate(); err != nil {
		slog.Warn("skipping placement spec", "spec", spec.Name, "error", err)
		return false
	}

	var missing string
	switch spec.Kind {
	case StandaloneInstance:
		if p.opts.Emitter == nil && spec.PoolTag == "" {
			missing = "emitter"
		}
	case TerrainNativeVegetation:
		if p.opts.Vegetation == nil {
			missing = "vegetation sink"
		}
	case BatchedInstance:
		if p.opts.Instances == nil {
			missing = "instance consumer"
		}
	}
	if missing != "" {
		slog.Warn("skipping placement spec", "spec", spec.Name, "missing", missing)
		return false
	}
	return true
}

func (p *Planner) registerPrototypes(specs []*PlacementSpec) {
	if t, ok := p.opts.Prototypes.(interface{ Reset() }); ok {
		t.Reset()
	}
	for _, spec := range specs {
		if spec.Kind == TerrainNativeVegetation && len(spec.Prefabs) > 0 {
			p.opts.Prototypes.RegisterPrototypes(spec.Prefabs)
		}
	}
}

func (p *Planner) prototypeList() []*Prefab {
	if t, ok := p.opts.Prototypes.(interface{ Prototypes() []*Prefab }); ok {
		return t.Prototypes()
	}
	return nil
}

// placeAnchor drops the anchor on the terrain's planar center.
func (p *Planner) placeAnchor(b Bounds, q SurfaceQuery) {
	if p.opts.Anchor == nil {
		return
	}
	c := b.Center()
	origin := r3.Vec{X: c.X, Y: b.Max.Y, Z: c.Z}
	if hit, ok := q.ProbeDown(origin, b.Max.Y-b.Min.Y, p.opts.Layers); ok {
		p.opts.Anchor.SetPosition(r3.Add(hit.Point, Up))
	}
}

func (p *Planner) scatterSpec(out []Candidate, b Bounds, q SurfaceQuery, spec *PlacementSpec) []Candidate {
	mask, err := p.buildMask(b, spec)
	if err != nil {
		slog.Warn("skipping placement spec", "spec", spec.Name, "error", err)
		return out
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	slopeLo, slopeHi := spec.SlopeBounds()
	reach := b.Max.Y - b.Min.Y

	for x := b.Min.X; x <= b.Max.X; x += spec.CellSize {
		for z := b.Min.Z; z <= b.Max.Z; z += spec.CellSize {
			strength := float64(mask.Clamped(int(x-b.Min.X), int(z-b.Min.Z)))

			for _, prefab := range spec.Prefabs {
				scale := spec.MinScale + rng.Float64()*(spec.MaxScale-spec.MinScale)
				jx := (rng.Float64()*2 - 1) * spec.RandomOffset
				jz := (rng.Float64()*2 - 1) * spec.RandomOffset

				origin := r3.Vec{X: x + jx, Y: b.Max.Y, Z: z + jz}
				hit, ok := q.ProbeDown(origin, reach, p.opts.Layers)
				if !ok {
					continue
				}
				if spec.SurfaceTag != "" && hit.Tag != spec.SurfaceTag {
					continue
				}
				if hit.Normal.Y < slopeLo || hit.Normal.Y > slopeHi {
					continue
				}
				if strength <= spec.MinNoiseStrength {
					continue
				}
				height := inverseLerp(b.Min.Y, b.Max.Y, hit.Point.Y)
				if height < spec.MinHeight || height > spec.MaxHeight {
					continue
				}

				c := Candidate{
					Transform: Transform{
						Position: r3.Sub(hit.Point, r3.Scale(spec.YOffset, Up)),
						Scale:    r3.Vec{X: scale, Y: scale, Z: scale},
					},
					Kind:             spec.Kind,
					Spec:             spec,
					Prefab:           prefab,
					Normal:           hit.Normal,
					NoiseValue:       strength,
					NormalizedHeight: height,
					PoolTag:          spec.PoolTag,
				}
				p.route(&c, b, q, rng)
				out = append(out, c)
			}
		}
	}
	return out
}

// buildMask computes the spec's scatter-filter mask over the bounds footprint.
func (p *Planner) buildMask(b Bounds, spec *PlacementSpec) (*grid.Field, error) {
	size := b.Size()
	w := int(size.X) + 1
	h := int(size.Z) + 1
	return noise.ScatterMask(w, h, max(w-1, 1), spec.Noise, noise.MaskOptions{
		Multiplier: spec.NoiseMultiplier,
		Invert:     spec.InvertNoise,
	})
}

// route materializes c according to its kind.
func (p *Planner) route(c *Candidate, b Bounds, q SurfaceQuery, rng *rand.Rand) {
	spec := c.Spec
	switch spec.Kind {
	case StandaloneInstance:
		c.Rotation = orientation(c.Normal, spec.UseSurfaceNormal)
		c.Rotation.Y = rng.Float64() * 360
		if spec.ClusterChildren {
			c.Children = p.snapChildren(c, q)
		}
		if spec.PoolTag != "" {
			return
		}
		p.emitted = append(p.emitted, p.opts.Emitter.Emit(c))

	case TerrainNativeVegetation:
		size := p.opts.TerrainSize
		if size.X == 0 || size.Y == 0 || size.Z == 0 {
			size = b.Max
		}
		v := VegetationInstance{
			Position: r3.Vec{
				X: c.Position.X / size.X,
				Y: c.Position.Y / size.Y,
				Z: c.Position.Z / size.Z,
			},
			Prototype:   p.opts.Prototypes.IndexOf(c.Prefab),
			Rotation:    rng.Float64() * 360,
			WidthScale:  c.Scale.X,
			HeightScale: c.Scale.Y,
		}
		c.Rotation = r3.Vec{Y: v.Rotation}
		c.Vegetation = &v
		p.vegetation = append(p.vegetation, v)

	case BatchedInstance:
		p.instances = append(p.instances, Instance{
			Mesh:      c.Prefab.Mesh,
			Materials: c.Prefab.Materials,
			Transform: c.Transform,
		})
	}
}

// snapChildren re-probes each cluster child below its own position.
func (p *Planner) snapChildren(c *Candidate, q SurfaceQuery) []Transform {
	children := c.Prefab.Children
	if len(children) == 0 {
		return nil
	}
	yaw := r3.NewRotation(c.Rotation.Y*math.Pi/180, Up)
	out := make([]Transform, 0, len(children))
	for _, ch := range children {
		offset := yaw.Rotate(r3.Scale(c.Scale.X, ch.Offset))
		t := Transform{
			Position: r3.Add(c.Position, offset),
			Rotation: c.Rotation,
			Scale:    c.Scale,
		}
		origin := r3.Add(t.Position, r3.Scale(childProbeLift, Up))
		if hit, ok := q.ProbeDown(origin, childProbeReach, p.opts.Layers); ok {
			t.Position = r3.Sub(hit.Point, r3.Scale(c.Spec.YOffset, Up))
			t.Rotation = orientation(hit.Normal, c.Spec.UseSurfaceNormal)
			t.Rotation.Y = c.Rotation.Y
		}
		out = append(out, t)
	}
	return out
}

// orientation returns euler degrees tilting up onto normal, or no tilt.
func orientation(normal r3.Vec, useNormal bool) r3.Vec {
	if !useNormal {
		return r3.Vec{}
	}
	return r3.Vec{
		X: math.Atan2(normal.Z, normal.Y) * 180 / math.Pi,
		Z: -math.Atan2(normal.X, normal.Y) * 180 / math.Pi,
	}
}

// inverseLerp returns where v lies between a and b, clamped to [0,1].
func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	t := (v - a) / (b - a)
	return math.Max(0, math.Min(1, t))
}
