// Terrain preview tool - interactive generation with sliders.
//
// Usage: go run ./cmd/terrainpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/camera"
	"github.com/pthm-cable/landgen/config"
	"github.com/pthm-cable/landgen/renderer"
	"github.com/pthm-cable/landgen/scatter"
	"github.com/pthm-cable/landgen/terrain"
	"github.com/pthm-cable/landgen/world"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// previewParams holds the values the sliders edit.
type previewParams struct {
	Scale       float32
	Octaves     int
	Persistence float32
	Lacunarity  float32
	Droplets    int
	Seed        int64
	Erode       bool
}

func paramsFrom(cfg *config.Config) previewParams {
	return previewParams{
		Scale:       float32(cfg.Noise.Scale),
		Octaves:     cfg.Noise.Octaves,
		Persistence: float32(cfg.Noise.Persistence),
		Lacunarity:  float32(cfg.Noise.Lacunarity),
		Droplets:    cfg.Erosion.NumberOfDroplets,
		Seed:        cfg.Terrain.Seed,
		Erode:       cfg.Terrain.Erode,
	}
}

func (p previewParams) apply(base *config.Config) *config.Config {
	cfg := *base
	cfg.Noise.Scale = float64(p.Scale)
	cfg.Noise.Octaves = p.Octaves
	cfg.Noise.Persistence = float64(p.Persistence)
	cfg.Noise.Lacunarity = float64(p.Lacunarity)
	cfg.Erosion.NumberOfDroplets = p.Droplets
	cfg.Terrain.Seed = p.Seed
	cfg.Terrain.Erode = p.Erode
	return &cfg
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	base := config.Cfg()

	rl.InitWindow(windowWidth, windowHeight, "Terrain Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	size := float32(base.Terrain.Size)
	cam := camera.New(10, 10, previewSize, previewSize, size, size)
	terrainView := renderer.NewTerrainRenderer()
	defer terrainView.Unload()
	instances := &renderer.InstanceRenderer{Cam: cam}

	params := paramsFrom(base)
	sink := &terrain.MemorySink{}
	var (
		w       *world.World
		cands   []scatter.Candidate
		ref     r3.Vec
		spawned int
		lastErr error
	)
	layer := renderer.LayerHeights
	needsRegen := true
	needsShade := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			cands, spawned = nil, 0
			w, lastErr = world.New(params.apply(base), sink, nil)
			if lastErr == nil {
				lastErr = w.Generate()
			}
			needsRegen = false
			needsShade = true
		}
		if needsShade {
			terrainView.Update(sink, layer)
			needsShade = false
		}
		if w != nil {
			w.Perf().RecordFrame()
		}

		// Map navigation: wheel zooms at the cursor, right drag pans
		mouse := rl.GetMousePosition()
		if cam.InViewport(mouse.X, mouse.Y) {
			if wheel := rl.GetMouseWheelMove(); wheel != 0 {
				cam.ZoomAt(mouse.X, mouse.Y, 1+0.1*wheel)
			}
			if rl.IsMouseButtonDown(rl.MouseButtonRight) {
				d := rl.GetMouseDelta()
				cam.Pan(-d.X, -d.Y)
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		terrainView.Draw(cam)
		rl.BeginScissorMode(int32(cam.OriginX), int32(cam.OriginY), int32(cam.ViewportW), int32(cam.ViewportH))
		if w != nil && len(cands) > 0 {
			instances.Reset()
			w.Batcher().Render(instances)
			renderer.DrawCandidates(cam, cands)
			renderer.DrawActiveCell(cam, w.Grid())
		}
		rl.EndScissorMode()

		// Click on the map moves the pooling reference point
		if w != nil && len(cands) > 0 && rl.IsMouseButtonPressed(rl.MouseButtonLeft) && cam.InViewport(mouse.X, mouse.Y) {
			x, z := cam.ScreenToWorld(mouse.X, mouse.Y)
			ref = r3.Vec{X: float64(x), Z: float64(z)}
			spawned = w.Tick(ref)
		}

		// Stats
		statsY := int32(previewSize + 25)
		if lastErr != nil {
			rl.DrawText(lastErr.Error(), 15, statsY, 14, rl.Red)
		} else if w != nil {
			res, _ := w.Terrain()
			lo, hi := res.Heights.MinMax()
			rl.DrawText(fmt.Sprintf("Seed: %d  Min: %.3f  Max: %.3f  Gen: %dms", res.Seed, lo, hi, res.Elapsed.Milliseconds()), 15, statsY, 16, rl.DarkGray)
			c := w.Scene().Counts()
			rl.DrawText(fmt.Sprintf("Placements: %d  Emitted: %d  Batched: %d/%d  Vegetation: %d", len(cands), c.Placements, instances.Drawn, len(w.Batches()), len(sink.Vegetation)), 15, statsY+20, 16, rl.DarkGray)
			rl.DrawText(fmt.Sprintf("Pool ref: (%.0f, %.0f)  Spawned: %d  Active: %d", ref.X, ref.Z, spawned, c.Active), 15, statsY+40, 16, rl.DarkGray)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Terrain Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		if v, changed := slider(panelX, &panelY, "Scale (base noise frequency)", "%.1f", params.Scale, 0.5, 10); changed {
			params.Scale = v
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Octaves (FBM detail level)", "%.0f", float32(params.Octaves), 1, 8); changed && int(v) != params.Octaves {
			params.Octaves = int(v)
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Persistence (amplitude multiplier)", "%.2f", params.Persistence, 0.1, 0.9); changed {
			params.Persistence = v
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Lacunarity (frequency multiplier)", "%.2f", params.Lacunarity, 1.5, 4); changed {
			params.Lacunarity = v
			needsRegen = true
		}
		if v, changed := slider(panelX, &panelY, "Droplets", "%.0f", float32(params.Droplets), 0, 200000); changed && int(v) != params.Droplets {
			params.Droplets = int(v)
			needsRegen = needsRegen || params.Erode
		}

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(1, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(params.Erode, "Erosion: On", "Erosion: Off")) {
			params.Erode = !params.Erode
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Scatter") && w != nil && lastErr == nil {
			cands, lastErr = w.Scatter()
			spawned = 0
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "View: "+layer.String()) {
			layer = (layer + 1) % renderer.NumLayers
			needsShade = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = paramsFrom(base)
			cam.Reset()
			needsRegen = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Left click ticks pooling, right drag pans, wheel zooms. C copies YAML.", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			var text string
			for _, line := range yamlLines(params) {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

// slider draws a labelled slider bar and reports whether its value moved.
func slider(x float32, y *float32, label, format string, value, lo, hi float32) (float32, bool) {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return v, v != value
}

func yamlLines(p previewParams) []string {
	return []string{
		"terrain:",
		fmt.Sprintf("  seed: %d", p.Seed),
		fmt.Sprintf("  erode: %t", p.Erode),
		"noise:",
		fmt.Sprintf("  scale: %.1f", p.Scale),
		fmt.Sprintf("  octaves: %d", p.Octaves),
		fmt.Sprintf("  persistence: %.2f", p.Persistence),
		fmt.Sprintf("  lacunarity: %.2f", p.Lacunarity),
		"erosion:",
		fmt.Sprintf("  droplets: %d", p.Droplets),
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
