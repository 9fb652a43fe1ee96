package scene

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/components"
	"github.com/pthm-cable/landgen/scatter"
)

func candidate(static bool, children int) *scatter.Candidate {
	prefab := &scatter.Prefab{Name: "boulder", Mesh: "boulder.mesh"}
	c := &scatter.Candidate{
		Transform: scatter.Transform{Position: r3.Vec{X: 4, Y: 2, Z: 9}, Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
		Kind:      scatter.StandaloneInstance,
		Spec:      &scatter.PlacementSpec{Name: "boulders", IsStatic: static},
		Prefab:    prefab,
	}
	for i := 0; i < children; i++ {
		prefab.Children = append(prefab.Children, scatter.Child{Name: "stone"})
		c.Children = append(c.Children, scatter.Transform{Position: r3.Vec{X: float64(i)}})
	}
	return c
}

func TestEmitAndRemove(t *testing.T) {
	w := New()
	a := w.Emit(candidate(true, 2))
	b := w.Emit(candidate(false, 0))

	got := w.Counts()
	if got.Placements != 2 || got.Static != 1 || got.Children != 2 {
		t.Errorf("unexpected counts after emit: %+v", got)
	}

	var names []string
	w.EachPlacement(func(tr components.Transform, p components.Placement) {
		names = append(names, p.Spec+"/"+p.Prefab)
		if tr.Position.X != 4 {
			t.Errorf("expected x=4, got %f", tr.Position.X)
		}
	})
	if len(names) != 2 || names[0] != "boulders/boulder" {
		t.Errorf("unexpected placements %v", names)
	}

	w.Remove(a)
	if w.Alive(a) {
		t.Error("expected removed handle to be dead")
	}
	if !w.Alive(b) {
		t.Error("expected other handle to stay alive")
	}
	got = w.Counts()
	if got.Placements != 1 || got.Static != 0 || got.Children != 0 {
		t.Errorf("unexpected counts after remove: %+v", got)
	}

	// Removing twice is a no-op
	w.Remove(a)
}

func TestPooledObjects(t *testing.T) {
	w := New()
	h := w.Instantiate("rock", "boulder")
	w.Instantiate("rock", "boulder")

	if got := w.Counts(); got.Pooled != 2 || got.Active != 0 {
		t.Errorf("expected 2 inactive pooled objects, got %+v", got)
	}

	w.Place(h, scatter.Transform{Position: r3.Vec{X: 7}})
	w.Place(h, scatter.Transform{Position: r3.Vec{X: 8}})

	var seen int
	w.EachActivePooled(func(tr components.Transform, p components.Pooled) {
		seen++
		if tr.Position.X != 8 || p.Spawns != 2 || p.Tag != "rock" {
			t.Errorf("unexpected pooled state %+v %+v", tr, p)
		}
	})
	if seen != 1 {
		t.Errorf("expected 1 active pooled object, got %d", seen)
	}
}

func TestAnchor(t *testing.T) {
	w := New()
	if _, ok := w.AnchorPosition(); ok {
		t.Error("expected no anchor before placement")
	}
	w.SetPosition(r3.Vec{X: 1, Y: 2, Z: 3})
	w.SetPosition(r3.Vec{X: 4, Y: 5, Z: 6})
	p, ok := w.AnchorPosition()
	if !ok || p != (r3.Vec{X: 4, Y: 5, Z: 6}) {
		t.Errorf("expected anchor at (4,5,6), got %v %v", p, ok)
	}
}
