package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(10, 10, 512, 512, 256, 256)

	// Should be centered on the terrain and show all of it
	if cam.X != 128 || cam.Z != 128 {
		t.Errorf("expected camera at (128, 128), got (%f, %f)", cam.X, cam.Z)
	}
	if cam.Zoom != 2 || cam.MinZoom != 2 {
		t.Errorf("expected zoom 2, got %f (min %f)", cam.Zoom, cam.MinZoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(10, 10, 512, 512, 256, 256)

	// Terrain corners map to viewport corners
	sx, sy := cam.WorldToScreen(0, 0)
	if math.Abs(float64(sx-10)) > 0.01 || math.Abs(float64(sy-10)) > 0.01 {
		t.Errorf("expected (10, 10), got (%f, %f)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(256, 256)
	if math.Abs(float64(sx-522)) > 0.01 || math.Abs(float64(sy-522)) > 0.01 {
		t.Errorf("expected (522, 522), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(10, 10, 512, 512, 256, 256)
	cam.SetZoom(5)
	cam.Pan(100, -40)

	testCases := []struct{ sx, sy float32 }{
		{266, 266}, // center
		{20, 30},   // top-left
		{500, 480}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wz := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wz)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wz, sx, sy)
		}
	}
}

func TestPanClampsToTerrain(t *testing.T) {
	cam := New(0, 0, 512, 512, 256, 256)

	// At minimum zoom the whole terrain is visible, so panning is a no-op
	cam.Pan(-300, 200)
	if cam.X != 128 || cam.Z != 128 {
		t.Errorf("expected pan ignored at min zoom, got (%f, %f)", cam.X, cam.Z)
	}

	cam.SetZoom(4) // 128 units visible
	cam.Pan(-10000, 10000)
	if cam.X != 64 || cam.Z != 192 {
		t.Errorf("expected camera clamped to (64, 192), got (%f, %f)", cam.X, cam.Z)
	}
	minX, minZ, maxX, maxZ := cam.VisibleWorldBounds()
	if minX != 0 || maxZ != 256 || maxX != 128 || minZ != 128 {
		t.Errorf("unexpected visible bounds (%f,%f)-(%f,%f)", minX, minZ, maxX, maxZ)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 800, 600, 200, 200)

	// MinZoom fits the limiting axis: min(800/200, 600/200) = 3
	if cam.MinZoom != 3 {
		t.Errorf("expected MinZoom 3, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != 3 {
		t.Errorf("expected zoom clamped to 3, got %f", cam.Zoom)
	}

	cam.SetZoom(100) // Above max
	if cam.Zoom != 16 {
		t.Errorf("expected zoom clamped to 16, got %f", cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(0, 0, 512, 512, 256, 256)

	wx, wz := cam.ScreenToWorld(200, 300)
	cam.ZoomAt(200, 300, 2)
	sx, sy := cam.WorldToScreen(wx, wz)
	if math.Abs(float64(sx-200)) > 0.01 || math.Abs(float64(sy-300)) > 0.01 {
		t.Errorf("expected point to stay at (200, 300), got (%f, %f)", sx, sy)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(0, 0, 512, 512, 256, 256)
	cam.SetZoom(8) // 64 units visible around (128, 128)

	if !cam.IsVisible(128, 128, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(10, 10, 1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(90, 128, 10) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestInViewport(t *testing.T) {
	cam := New(10, 10, 512, 512, 256, 256)
	if !cam.InViewport(10, 10) || cam.InViewport(522, 100) || cam.InViewport(5, 100) {
		t.Error("unexpected viewport containment")
	}
}

func TestResetAndResize(t *testing.T) {
	cam := New(0, 0, 512, 512, 256, 256)
	cam.SetZoom(6)
	cam.Pan(50, 50)

	cam.Reset()
	if cam.X != 128 || cam.Z != 128 || cam.Zoom != 2 {
		t.Errorf("expected reset view, got (%f, %f) zoom %f", cam.X, cam.Z, cam.Zoom)
	}

	cam.Resize(64, 64)
	if cam.MinZoom != 8 || cam.X != 32 {
		t.Errorf("expected refit to 64 units, got min zoom %f at %f", cam.MinZoom, cam.X)
	}
}
