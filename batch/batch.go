// Package batch groups raw mesh placements into capped instanced draws.
package batch

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/scatter"
)

// DefaultCap is the largest number of instances in one draw.
const DefaultCap = 1000

// Batch is a run of instances sharing one mesh.
type Batch struct {
	Mesh       string
	Materials  []string
	Transforms []scatter.Transform
}

// Len returns the number of instances.
func (b *Batch) Len() int { return len(b.Transforms) }

// Build groups instances greedily in input order. A new batch starts when
// the mesh changes or the current batch holds maxSize instances. No sorting
// is done, so alternating meshes produce one batch per instance.
func Build(instances []scatter.Instance, maxSize int) []Batch {
	if maxSize <= 0 {
		maxSize = DefaultCap
	}
	var out []Batch
	for i := range instances {
		in := &instances[i]
		n := len(out)
		if n == 0 || out[n-1].Mesh != in.Mesh || len(out[n-1].Transforms) >= maxSize {
			out = append(out, Batch{
				Mesh:       in.Mesh,
				Materials:  in.Materials,
				Transforms: make([]scatter.Transform, 0, min(maxSize, len(instances)-i)),
			})
			n++
		}
		out[n-1].Transforms = append(out[n-1].Transforms, in.Transform)
	}
	return out
}

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float32

// TRS builds the matrix that scales, then rotates by euler degrees applied
// Z, X, Y, then translates.
func TRS(t scatter.Transform) Mat4 {
	const deg = math.Pi / 180
	rz := r3.NewRotation(t.Rotation.Z*deg, r3.Vec{Z: 1})
	rx := r3.NewRotation(t.Rotation.X*deg, r3.Vec{X: 1})
	ry := r3.NewRotation(t.Rotation.Y*deg, r3.Vec{Y: 1})
	rot := func(v r3.Vec) r3.Vec { return ry.Rotate(rx.Rotate(rz.Rotate(v))) }

	cx := r3.Scale(t.Scale.X, rot(r3.Vec{X: 1}))
	cy := r3.Scale(t.Scale.Y, rot(r3.Vec{Y: 1}))
	cz := r3.Scale(t.Scale.Z, rot(r3.Vec{Z: 1}))
	p := t.Position

	return Mat4{
		float32(cx.X), float32(cx.Y), float32(cx.Z), 0,
		float32(cy.X), float32(cy.Y), float32(cy.Z), 0,
		float32(cz.X), float32(cz.Y), float32(cz.Z), 0,
		float32(p.X), float32(p.Y), float32(p.Z), 1,
	}
}

// Matrices returns one TRS matrix per instance.
func (b *Batch) Matrices() []Mat4 {
	out := make([]Mat4, len(b.Transforms))
	for i, t := range b.Transforms {
		out[i] = TRS(t)
	}
	return out
}

// Renderer issues instanced draws.
type Renderer interface {
	DrawInstanced(mesh string, subMesh int, material string, matrices []Mat4)
}

// Batcher keeps the batches of the latest plan and submits them.
// It satisfies scatter.InstanceConsumer.
type Batcher struct {
	Cap     int
	batches []Batch
}

// ConsumeInstances rebuilds the batches from instances.
func (b *Batcher) ConsumeInstances(instances []scatter.Instance) {
	b.batches = Build(instances, b.Cap)
	slog.Info("built instance batches", "instances", len(instances), "batches", len(b.batches))
}

// Batches returns the current batches.
func (b *Batcher) Batches() []Batch { return b.batches }

// Reset drops all batches.
func (b *Batcher) Reset() { b.batches = nil }

// Render issues one draw per batch and material slot.
func (b *Batcher) Render(r Renderer) int {
	draws := 0
	for i := range b.batches {
		bt := &b.batches[i]
		m := bt.Matrices()
		for sub, mat := range bt.Materials {
			r.DrawInstanced(bt.Mesh, sub, mat, m)
			draws++
		}
	}
	return draws
}
