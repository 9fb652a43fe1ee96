// Package scene materializes placements as ECS entities.
package scene

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/components"
	"github.com/pthm-cable/landgen/scatter"
)

type emitted struct {
	root     ecs.Entity
	children []ecs.Entity
}

// World owns every entity created for standalone placements, cluster
// children, pooled objects and the anchor. It satisfies scatter.Emitter,
// scatter.Anchor and pool.Spawner.
type World struct {
	world *ecs.World

	placeMapper  *ecs.Map2[components.Transform, components.Placement]
	childMapper  *ecs.Map2[components.Transform, components.Child]
	pooledMapper *ecs.Map2[components.Transform, components.Pooled]
	anchorMapper *ecs.Map2[components.Transform, components.Anchor]

	transformMap *ecs.Map1[components.Transform]
	pooledMap    *ecs.Map1[components.Pooled]
	staticMap    *ecs.Map1[components.Static]

	placeFilter  *ecs.Filter2[components.Transform, components.Placement]
	pooledFilter *ecs.Filter2[components.Transform, components.Pooled]

	next    scatter.Handle
	emitted map[scatter.Handle]emitted
	pooled  map[scatter.Handle]ecs.Entity

	anchor    ecs.Entity
	hasAnchor bool
}

// New creates an empty scene.
func New() *World {
	world := ecs.NewWorld()
	return &World{
		world:        world,
		placeMapper:  ecs.NewMap2[components.Transform, components.Placement](world),
		childMapper:  ecs.NewMap2[components.Transform, components.Child](world),
		pooledMapper: ecs.NewMap2[components.Transform, components.Pooled](world),
		anchorMapper: ecs.NewMap2[components.Transform, components.Anchor](world),
		transformMap: ecs.NewMap1[components.Transform](world),
		pooledMap:    ecs.NewMap1[components.Pooled](world),
		staticMap:    ecs.NewMap1[components.Static](world),
		placeFilter:  ecs.NewFilter2[components.Transform, components.Placement](world),
		pooledFilter: ecs.NewFilter2[components.Transform, components.Pooled](world),
		emitted:      make(map[scatter.Handle]emitted),
		pooled:       make(map[scatter.Handle]ecs.Entity),
	}
}

func (w *World) handle() scatter.Handle {
	w.next++
	return w.next
}

func toComponent(t scatter.Transform) components.Transform {
	return components.Transform{Position: t.Position, Rotation: t.Rotation, Scale: t.Scale}
}

// Emit creates a root entity for c and one entity per snapped child.
func (w *World) Emit(c *scatter.Candidate) scatter.Handle {
	tr := toComponent(c.Transform)
	pl := components.Placement{}
	if c.Prefab != nil {
		pl.Prefab, pl.Mesh = c.Prefab.Name, c.Prefab.Mesh
	}
	if c.Spec != nil {
		pl.Spec = c.Spec.Name
	}
	root := w.placeMapper.NewEntity(&tr, &pl)
	if c.Spec != nil && c.Spec.IsStatic {
		w.staticMap.Add(root, &components.Static{})
	}

	e := emitted{root: root}
	for i, ct := range c.Children {
		child := components.Child{Parent: root}
		if c.Prefab != nil && i < len(c.Prefab.Children) {
			child.Name = c.Prefab.Children[i].Name
		}
		ctr := toComponent(ct)
		e.children = append(e.children, w.childMapper.NewEntity(&ctr, &child))
	}

	h := w.handle()
	w.emitted[h] = e
	return h
}

// Remove deletes an emitted placement and its children.
func (w *World) Remove(h scatter.Handle) {
	e, ok := w.emitted[h]
	if !ok {
		return
	}
	for _, ch := range e.children {
		w.world.RemoveEntity(ch)
	}
	w.world.RemoveEntity(e.root)
	delete(w.emitted, h)
}

// Instantiate creates an inactive pooled object.
func (w *World) Instantiate(tag, prefab string) scatter.Handle {
	e := w.pooledMapper.NewEntity(
		&components.Transform{Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
		&components.Pooled{Tag: tag, Prefab: prefab},
	)
	h := w.handle()
	w.pooled[h] = e
	return h
}

// Place activates a pooled object at t.
func (w *World) Place(h scatter.Handle, t scatter.Transform) {
	e, ok := w.pooled[h]
	if !ok {
		return
	}
	*w.transformMap.Get(e) = toComponent(t)
	p := w.pooledMap.Get(e)
	p.Active = true
	p.Spawns++
}

// SetPosition moves the anchor, creating it on first use.
func (w *World) SetPosition(pos r3.Vec) {
	if !w.hasAnchor {
		w.anchor = w.anchorMapper.NewEntity(
			&components.Transform{Scale: r3.Vec{X: 1, Y: 1, Z: 1}},
			&components.Anchor{},
		)
		w.hasAnchor = true
	}
	w.transformMap.Get(w.anchor).Position = pos
}

// AnchorPosition returns the anchor position, if placed.
func (w *World) AnchorPosition() (r3.Vec, bool) {
	if !w.hasAnchor {
		return r3.Vec{}, false
	}
	return w.transformMap.Get(w.anchor).Position, true
}

// Alive reports whether an emitted handle still exists.
func (w *World) Alive(h scatter.Handle) bool {
	e, ok := w.emitted[h]
	return ok && w.world.Alive(e.root)
}

// Counts summarizes the scene.
type Counts struct {
	Placements int
	Static     int
	Children   int
	Pooled     int
	Active     int
}

// Counts walks the scene and tallies entities.
func (w *World) Counts() Counts {
	var c Counts
	query := w.placeFilter.Query()
	for query.Next() {
		c.Placements++
		if w.staticMap.HasAll(query.Entity()) {
			c.Static++
		}
	}
	for _, e := range w.emitted {
		c.Children += len(e.children)
	}
	pq := w.pooledFilter.Query()
	for pq.Next() {
		_, p := pq.Get()
		c.Pooled++
		if p.Active {
			c.Active++
		}
	}
	return c
}

// EachPlacement calls fn for every standalone root placement.
func (w *World) EachPlacement(fn func(components.Transform, components.Placement)) {
	query := w.placeFilter.Query()
	for query.Next() {
		t, p := query.Get()
		fn(*t, *p)
	}
}

// EachActivePooled calls fn for every pooled object that has been spawned.
func (w *World) EachActivePooled(fn func(components.Transform, components.Pooled)) {
	query := w.pooledFilter.Query()
	for query.Next() {
		t, p := query.Get()
		if p.Active {
			fn(*t, *p)
		}
	}
}
