// Package camera provides a 2D top-down camera over the terrain.
package camera

// Camera controls the viewport onto the terrain's XZ plane. The view is
// kept inside the terrain: panning clamps at the edges and the minimum zoom
// shows the whole terrain.
type Camera struct {
	// Position is the camera center in world coordinates (X, Z)
	X, Z float32

	// Zoom is screen pixels per world unit
	Zoom float32

	// Viewport origin and dimensions on screen
	OriginX, OriginY     float32
	ViewportW, ViewportH float32

	// Terrain extent on X and Z
	WorldW, WorldD float32

	MinZoom, MaxZoom float32
}

// New creates a camera fitting the whole terrain into the viewport.
func New(originX, originY, viewportW, viewportH, worldW, worldD float32) *Camera {
	c := &Camera{
		OriginX:   originX,
		OriginY:   originY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldD:    worldD,
		MaxZoom:   16,
	}
	c.MinZoom = c.fitZoom()
	c.Reset()
	return c
}

// fitZoom is the zoom at which the larger terrain axis fills the viewport.
func (c *Camera) fitZoom() float32 {
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldD)
}

// WorldToScreen converts a terrain position to screen coordinates.
func (c *Camera) WorldToScreen(wx, wz float32) (sx, sy float32) {
	sx = c.OriginX + c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.OriginY + c.ViewportH/2 + (wz-c.Z)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to a terrain position.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wz float32) {
	wx = c.X + (sx-c.OriginX-c.ViewportW/2)/c.Zoom
	wz = c.Z + (sy-c.OriginY-c.ViewportH/2)/c.Zoom
	return wx, wz
}

// InViewport reports whether a screen point lies inside the viewport.
func (c *Camera) InViewport(sx, sy float32) bool {
	return sx >= c.OriginX && sx < c.OriginX+c.ViewportW &&
		sy >= c.OriginY && sy < c.OriginY+c.ViewportH
}

// IsVisible returns true if a circle at (wx, wz) with given radius could be
// visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wz, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wz-c.Z) <= halfH
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Z += dy / c.Zoom
	c.clampPosition()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the terrain point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wz := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	nx, nz := c.ScreenToWorld(sx, sy)
	c.X += wx - nx
	c.Z += wz - nz
	c.clampPosition()
}

// Resize updates the terrain extent, refitting the minimum zoom.
func (c *Camera) Resize(worldW, worldD float32) {
	if worldW == c.WorldW && worldD == c.WorldD {
		return
	}
	c.WorldW, c.WorldD = worldW, worldD
	c.MinZoom = c.fitZoom()
	c.Reset()
}

// Reset shows the whole terrain.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Z = c.WorldD / 2
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the terrain-coordinate bounds of the visible
// area.
func (c *Camera) VisibleWorldBounds() (minX, minZ, maxX, maxZ float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Z - halfH, c.X + halfW, c.Z + halfH
}

// clampPosition keeps the view inside the terrain. An axis narrower than
// the viewport stays centered.
func (c *Camera) clampPosition() {
	c.X = clampAxis(c.X, c.ViewportW/(2*c.Zoom), c.WorldW)
	c.Z = clampAxis(c.Z, c.ViewportH/(2*c.Zoom), c.WorldD)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
