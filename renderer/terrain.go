// Package renderer draws the terrain preview: a shaded height map with its
// placements and pooling grid, seen through a top-down camera.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/landgen/camera"
	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/pool"
	"github.com/pthm-cable/landgen/scatter"
	"github.com/pthm-cable/landgen/terrain"
)

// Layer selects what the terrain texture shows.
type Layer int

const (
	LayerHeights Layer = iota
	LayerErosion
	LayerDeposition
	NumLayers
)

var layerNames = [NumLayers]string{"Heights", "Erosion", "Deposition"}

func (l Layer) String() string {
	if l >= 0 && l < NumLayers {
		return layerNames[l]
	}
	return "unknown"
}

// TerrainRenderer renders the terrain held by a sink as a texture.
type TerrainRenderer struct {
	texture     rl.Texture2D
	pixels      []color.RGBA
	size        int
	worldSize   float32
	initialized bool
}

// NewTerrainRenderer creates a new terrain renderer.
func NewTerrainRenderer() *TerrainRenderer {
	return &TerrainRenderer{}
}

// Update reshades the texture from sink (must be called after the raylib
// window is created). It does nothing until the sink holds heights.
func (r *TerrainRenderer) Update(sink *terrain.MemorySink, layer Layer) {
	if sink.Heights == nil {
		return
	}
	n := sink.Heights.Size()
	if !r.initialized || n != r.size {
		r.Unload()
		img := rl.GenImageColor(n, n, rl.Black)
		r.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		r.pixels = make([]color.RGBA, n*n)
		r.size = n
		r.initialized = true
	}
	r.worldSize = float32(sink.Size)
	if Shade(r.pixels, sink, layer) {
		rl.UpdateTexture(r.texture, r.pixels)
	}
}

// Draw renders the texture through cam, clipped to its viewport.
func (r *TerrainRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	x0, y0 := cam.WorldToScreen(0, 0)
	x1, y1 := cam.WorldToScreen(r.worldSize, r.worldSize)

	rl.BeginScissorMode(int32(cam.OriginX), int32(cam.OriginY), int32(cam.ViewportW), int32(cam.ViewportH))
	rl.DrawTexturePro(
		r.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(r.size), Height: float32(r.size)},
		rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.EndScissorMode()
	rl.DrawRectangleLines(int32(cam.OriginX), int32(cam.OriginY), int32(cam.ViewportW), int32(cam.ViewportH), rl.DarkGray)
}

// Unload frees resources.
func (r *TerrainRenderer) Unload() {
	if r.initialized {
		rl.UnloadTexture(r.texture)
		r.initialized = false
	}
}

// Shade fills pixels with the selected layer of sink. It reports false when
// the layer is not available.
func Shade(pixels []color.RGBA, sink *terrain.MemorySink, layer Layer) bool {
	switch layer {
	case LayerErosion, LayerDeposition:
		mask := sink.Erosion
		if layer == LayerDeposition {
			mask = sink.Deposition
		}
		if mask == nil || len(mask.Pix) < len(pixels) {
			return false
		}
		for i := range pixels {
			v := mask.Pix[i]
			pixels[i] = color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255}
		}
		return true
	default:
		if sink.Heights == nil {
			return false
		}
		shadeHeights(pixels, sink.Heights)
		return true
	}
}

func shadeHeights(pixels []color.RGBA, heights *grid.Field) {
	for i, v := range heights.Data() {
		pixels[i] = HeightColor(v)
	}
}

// HeightColor shades a normalized height with a gradient:
// deep blue -> sand -> green -> rock -> snow
func HeightColor(v float32) color.RGBA {
	v = min(max(v, 0), 1)
	var r, g, b float32
	switch {
	case v < 0.12:
		t := v / 0.12
		r, g, b = 20+t*30, 40+t*60, 90+t*80
	case v < 0.2:
		t := (v - 0.12) / 0.08
		r, g, b = 190+t*10, 180-t*20, 120-t*40
	case v < 0.55:
		t := (v - 0.2) / 0.35
		r, g, b = 60+t*40, 140-t*30, 50+t*10
	case v < 0.8:
		t := (v - 0.55) / 0.25
		r, g, b = 100+t*40, 110+t*20, 60+t*60
	default:
		t := (v - 0.8) / 0.2
		r, g, b = 140+t*115, 130+t*125, 120+t*135
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

var kindColors = map[scatter.ObjectKind]color.RGBA{
	scatter.StandaloneInstance:      {R: 200, G: 60, B: 40, A: 255},
	scatter.TerrainNativeVegetation: {R: 40, G: 160, B: 60, A: 200},
	scatter.BatchedInstance:         {R: 20, G: 90, B: 30, A: 255},
}

// CandidateColor returns the marker color of a placement. Pooled
// placements share one color.
func CandidateColor(c *scatter.Candidate) color.RGBA {
	if c.PoolTag != "" {
		return rl.Purple
	}
	return kindColors[c.Kind]
}

// DrawCandidates marks standalone and vegetation placements. Batched
// placements are drawn by an InstanceRenderer.
func DrawCandidates(cam *camera.Camera, cands []scatter.Candidate) {
	radius := max(cam.Zoom*0.4, 1.5)
	for i := range cands {
		c := &cands[i]
		if c.Kind == scatter.BatchedInstance {
			continue
		}
		x, z := float32(c.Position.X), float32(c.Position.Z)
		if !cam.IsVisible(x, z, 1) {
			continue
		}
		sx, sy := cam.WorldToScreen(x, z)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, CandidateColor(c))
	}
}

// DrawActiveCell outlines the active pooling cell, if any.
func DrawActiveCell(cam *camera.Camera, g *pool.Grid) {
	cell, ok := g.Active()
	if !ok {
		return
	}
	side := float32(g.CellSize())
	x0, y0 := cam.WorldToScreen(float32(cell.X)*side, float32(cell.Z)*side)
	x1, y1 := cam.WorldToScreen(float32(cell.X+1)*side, float32(cell.Z+1)*side)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 2, rl.Orange)
}
