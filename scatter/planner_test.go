package scatter

import (
	"errors"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/noise"
)

type fakeEmitter struct {
	next Handle
	live map[Handle]*Candidate
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{live: make(map[Handle]*Candidate)}
}

func (e *fakeEmitter) Emit(c *Candidate) Handle {
	e.next++
	e.live[e.next] = c
	return e.next
}

func (e *fakeEmitter) Remove(h Handle) { delete(e.live, h) }

type fakeVegetation struct {
	calls      int
	prototypes []*Prefab
	instances  []VegetationInstance
}

func (v *fakeVegetation) SetVegetationInstances(protos []*Prefab, inst []VegetationInstance) {
	v.calls++
	v.prototypes = protos
	v.instances = append([]VegetationInstance(nil), inst...)
}

type fakeConsumer struct {
	instances []Instance
}

func (c *fakeConsumer) ConsumeInstances(inst []Instance) {
	c.instances = append(c.instances, inst...)
}

type fakeAnchor struct {
	pos   r3.Vec
	moved bool
}

func (a *fakeAnchor) SetPosition(p r3.Vec) { a.pos, a.moved = p, true }

func testSurface(t *testing.T) *HeightfieldSurface {
	t.Helper()
	heights, err := noise.Generate(65, 65, 120, -75, noise.Config{
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		Scale:       3,
		Seed:        3,

		Normalization: 0.5,
	})
	if err != nil {
		t.Fatalf("generating heights: %v", err)
	}
	return NewHeightfieldSurface(heights, 64, 20, "ground")
}

func testSpec(kind ObjectKind) *PlacementSpec {
	return &PlacementSpec{
		Name:         "rocks",
		Prefabs:      []*Prefab{{Name: "rock", Mesh: "rock.mesh"}},
		Kind:         kind,
		CellSize:     4,
		RandomOffset: 1,
		MinScale:     0.8,
		MaxScale:     1.2,
		MinSlope:     0,
		MaxSlope:     60,
		MinHeight:    0.1,
		MaxHeight:    0.9,
		Seed:         11,
		Noise: noise.Config{
			Octaves:     2,
			Persistence: 0.5,
			Lacunarity:  2,
			Scale:       4,
			Seed:        5,
		},
		MinNoiseStrength: 0.2,
	}
}

func TestPlanCandidatesSatisfyConstraints(t *testing.T) {
	surf := testSurface(t)
	spec := testSpec(StandaloneInstance)
	spec.UseSurfaceNormal = true

	p := NewPlanner(Options{Emitter: newFakeEmitter()})
	cands := p.Plan(surf.Bounds(), surf, []*PlacementSpec{spec})
	if len(cands) == 0 {
		t.Fatal("expected some candidates")
	}

	lo, hi := spec.SlopeBounds()
	for i, c := range cands {
		if c.Normal.Y < lo || c.Normal.Y > hi {
			t.Errorf("candidate %d: slope %f outside [%f,%f]", i, c.Normal.Y, lo, hi)
		}
		if c.NormalizedHeight < spec.MinHeight || c.NormalizedHeight > spec.MaxHeight {
			t.Errorf("candidate %d: height %f outside range", i, c.NormalizedHeight)
		}
		if c.NoiseValue <= spec.MinNoiseStrength {
			t.Errorf("candidate %d: noise %f not above %f", i, c.NoiseValue, spec.MinNoiseStrength)
		}
		if c.Scale.X < spec.MinScale || c.Scale.X > spec.MaxScale {
			t.Errorf("candidate %d: scale %f outside range", i, c.Scale.X)
		}
		if c.Rotation.Y < 0 || c.Rotation.Y >= 360 {
			t.Errorf("candidate %d: yaw %f outside [0,360)", i, c.Rotation.Y)
		}
		if c.Spec != spec {
			t.Errorf("candidate %d: expected spec reference to be kept", i)
		}
	}
	if got := len(p.Emitted()); got != len(cands) {
		t.Errorf("expected %d emitted objects, got %d", len(cands), got)
	}
}

func TestPlanImpossibleNoiseThreshold(t *testing.T) {
	surf := testSurface(t)
	spec := testSpec(StandaloneInstance)
	spec.MinNoiseStrength = 1.1

	p := NewPlanner(Options{Emitter: newFakeEmitter()})
	if cands := p.Plan(surf.Bounds(), surf, []*PlacementSpec{spec}); len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
}

func TestPlanIdempotent(t *testing.T) {
	surf := testSurface(t)
	spec := testSpec(StandaloneInstance)
	spec.ClusterChildren = true
	spec.Prefabs[0].Children = []Child{
		{Name: "pebble", Offset: r3.Vec{X: 1.5}},
		{Name: "pebble", Offset: r3.Vec{Z: -1}},
	}

	em := newFakeEmitter()
	p := NewPlanner(Options{Emitter: em})

	first := p.Plan(surf.Bounds(), surf, []*PlacementSpec{spec})
	live := len(em.live)
	second := p.Plan(surf.Bounds(), surf, []*PlacementSpec{spec})

	if len(first) == 0 {
		t.Fatal("expected some candidates")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical candidates across replans")
	}
	if len(em.live) != live {
		t.Errorf("expected previous objects retracted: %d live before, %d after", live, len(em.live))
	}
	for _, c := range first {
		if len(c.Children) != 2 {
			t.Fatalf("expected 2 snapped children, got %d", len(c.Children))
		}
	}
}

func TestPlanSurfaceTagFilter(t *testing.T) {
	surf := testSurface(t)
	water := &Plane{Y: 8, Max: r3.Vec{X: 64, Z: 64}, Tag: "water", Layer: 1}
	query := Surfaces{surf, water}

	spec := testSpec(StandaloneInstance)
	spec.MinHeight, spec.MaxHeight = 0, 1
	spec.MinNoiseStrength = -1
	spec.SurfaceTag = "water"

	p := NewPlanner(Options{Emitter: newFakeEmitter()})
	cands := p.Plan(surf.Bounds(), query, []*PlacementSpec{spec})
	if len(cands) == 0 {
		t.Fatal("expected candidates on the water plane")
	}
	for _, c := range cands {
		if c.Position.Y != water.Y {
			t.Errorf("expected placement on the plane, got y=%f", c.Position.Y)
		}
	}
}

func TestPlanSkipsInvalidSpecs(t *testing.T) {
	surf := testSurface(t)

	empty := testSpec(StandaloneInstance)
	empty.Prefabs = nil
	zeroCell := testSpec(StandaloneInstance)
	zeroCell.CellSize = 0
	inverted := testSpec(StandaloneInstance)
	inverted.MinHeight, inverted.MaxHeight = 0.8, 0.2
	good := testSpec(StandaloneInstance)

	p := NewPlanner(Options{Emitter: newFakeEmitter()})
	cands := p.Plan(surf.Bounds(), surf, []*PlacementSpec{empty, zeroCell, inverted, good})
	if len(cands) == 0 {
		t.Fatal("expected the valid spec to still be planned")
	}
	for _, c := range cands {
		if c.Spec != good {
			t.Fatalf("candidate from skipped spec %q", c.Spec.Name)
		}
	}

	if !errors.Is(inverted.Validate(), ErrInvertedRange) {
		t.Errorf("expected ErrInvertedRange, got %v", inverted.Validate())
	}
}

func TestPlanRoutesByKind(t *testing.T) {
	surf := testSurface(t)
	veg := &fakeVegetation{}
	cons := &fakeConsumer{}
	anchor := &fakeAnchor{}

	grass := testSpec(TerrainNativeVegetation)
	grass.Name = "grass"
	grass.Prefabs = []*Prefab{{Name: "grass_a"}, {Name: "grass_b"}}
	trees := testSpec(BatchedInstance)
	trees.Name = "trees"

	p := NewPlanner(Options{Vegetation: veg, Instances: cons, Anchor: anchor})
	cands := p.Plan(surf.Bounds(), surf, []*PlacementSpec{grass, trees})

	var nveg, nbatch int
	for _, c := range cands {
		switch c.Kind {
		case TerrainNativeVegetation:
			nveg++
		case BatchedInstance:
			nbatch++
		}
	}
	if nveg == 0 || nbatch == 0 {
		t.Fatalf("expected both kinds, got vegetation=%d batched=%d", nveg, nbatch)
	}

	// Retract clears the sink once, the plan submits once
	if veg.calls != 2 {
		t.Errorf("expected 2 sink calls, got %d", veg.calls)
	}
	if len(veg.instances) != nveg {
		t.Errorf("expected %d vegetation records, got %d", nveg, len(veg.instances))
	}
	if len(veg.prototypes) != 2 {
		t.Errorf("expected 2 prototypes, got %d", len(veg.prototypes))
	}
	for _, v := range veg.instances {
		if v.Position.X < 0 || v.Position.X > 1 || v.Position.Z < 0 || v.Position.Z > 1 {
			t.Errorf("expected normalized position, got %v", v.Position)
		}
		if v.Prototype < 0 || v.Prototype > 1 {
			t.Errorf("unexpected prototype index %d", v.Prototype)
		}
	}
	if len(cons.instances) != nbatch {
		t.Errorf("expected %d batched instances, got %d", nbatch, len(cons.instances))
	}
	if !anchor.moved {
		t.Error("expected anchor to be placed")
	}
	if c := surf.Bounds().Center(); anchor.pos.X != c.X || anchor.pos.Z != c.Z {
		t.Errorf("expected anchor at planar center, got %v", anchor.pos)
	}
}

func TestPlanWithoutQuery(t *testing.T) {
	p := NewPlanner(Options{Emitter: newFakeEmitter()})
	if cands := p.Plan(Bounds{Max: r3.Vec{X: 10, Y: 10, Z: 10}}, nil, []*PlacementSpec{testSpec(StandaloneInstance)}); cands != nil {
		t.Errorf("expected nil result without a query, got %d", len(cands))
	}
}

func TestPrototypeIndexFallback(t *testing.T) {
	a, b := &Prefab{Name: "fern"}, &Prefab{Name: "shrub"}
	var table PrototypeTable
	table.RegisterPrototypes([]*Prefab{a, b})

	if got := table.IndexOf(b); got != 1 {
		t.Errorf("expected index 1, got %d", got)
	}
	if got := table.IndexOf(&Prefab{Name: "ferm"}); got != 0 {
		t.Errorf("expected fallback index 0, got %d", got)
	}
	if got := ClosestName("ferm", []string{"fern", "shrub"}); got != "fern" {
		t.Errorf("expected fern, got %q", got)
	}
	if got := ClosestName("boulder", []string{"fern"}); got != "" {
		t.Errorf("expected no suggestion, got %q", got)
	}
}

func TestObjectKindText(t *testing.T) {
	for _, k := range []ObjectKind{StandaloneInstance, TerrainNativeVegetation, BatchedInstance} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", k, err)
		}
		var got ObjectKind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != k {
			t.Errorf("expected %v, got %v", k, got)
		}
	}
	if _, err := ParseObjectKind("decal"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestHeightfieldProbe(t *testing.T) {
	f := grid.NewSquare(3)
	for i := range f.Data() {
		f.Data()[i] = 0.5
	}
	s := NewHeightfieldSurface(f, 10, 4, "ground")

	hit, ok := s.ProbeDown(r3.Vec{X: 5, Y: 4, Z: 5}, 4, AllLayers)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Point.Y != 2 {
		t.Errorf("expected y=2, got %f", hit.Point.Y)
	}
	if hit.Normal != Up {
		t.Errorf("expected up normal on flat ground, got %v", hit.Normal)
	}
	if _, ok := s.ProbeDown(r3.Vec{X: 11, Y: 4, Z: 5}, 4, AllLayers); ok {
		t.Error("expected miss outside footprint")
	}
	if _, ok := s.ProbeDown(r3.Vec{X: 5, Y: 4, Z: 5}, 4, 2); ok {
		t.Error("expected miss on filtered layer")
	}
}
