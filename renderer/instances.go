package renderer

import (
	"hash/fnv"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/landgen/batch"
	"github.com/pthm-cable/landgen/camera"
)

// InstanceRenderer draws instance batches as map markers, one color per
// mesh. It satisfies batch.Renderer.
type InstanceRenderer struct {
	Cam *camera.Camera

	// Drawn counts markers drawn since the last Reset.
	Drawn int
}

// DrawInstanced marks every instance of the first material slot; other
// slots share the same transforms and are skipped.
func (r *InstanceRenderer) DrawInstanced(mesh string, subMesh int, material string, matrices []batch.Mat4) {
	if subMesh != 0 {
		return
	}
	col := MeshColor(mesh)
	for i := range matrices {
		x, z := Position(&matrices[i])
		if !r.Cam.IsVisible(x, z, 1) {
			continue
		}
		sx, sy := r.Cam.WorldToScreen(x, z)
		rl.DrawPixelV(rl.Vector2{X: sx, Y: sy}, col)
		if r.Cam.Zoom > 2 {
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r.Cam.Zoom*0.3*XZScale(&matrices[i]), col)
		}
		r.Drawn++
	}
}

// Reset clears the draw counter.
func (r *InstanceRenderer) Reset() { r.Drawn = 0 }

// Position returns the X and Z translation of a column-major matrix.
func Position(m *batch.Mat4) (x, z float32) {
	return m[12], m[14]
}

// XZScale returns the length of the matrix X axis, the instance scale for
// uniformly scaled transforms.
func XZScale(m *batch.Mat4) float32 {
	x, y, z := m[0], m[1], m[2]
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

// MeshColor derives a stable dark green tint from a mesh name.
func MeshColor(mesh string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(mesh))
	v := h.Sum32()
	return color.RGBA{
		R: uint8(20 + v%40),
		G: uint8(80 + (v>>8)%100),
		B: uint8(20 + (v>>16)%50),
		A: 255,
	}
}
