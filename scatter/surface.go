package scatter

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/grid"
)

// Up is the world up axis.
var Up = r3.Vec{Y: 1}

// LayerMask filters which surfaces a probe may hit.
type LayerMask uint32

// AllLayers accepts every surface.
const AllLayers LayerMask = math.MaxUint32

// Hit is the result of a downward probe.
type Hit struct {
	Point  r3.Vec
	Normal r3.Vec
	Tag    string
}

// SurfaceQuery answers vertical probes cast straight down from origin.
type SurfaceQuery interface {
	ProbeDown(origin r3.Vec, maxDistance float64, layers LayerMask) (Hit, bool)
}

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Min, Max r3.Vec
}

// Center returns the midpoint of the box.
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the box extents.
func (b Bounds) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// HeightfieldSurface exposes a normalized height field as a probe target.
// The field spans [0, Size] on X and Z and [0, Height] vertically.
type HeightfieldSurface struct {
	Heights *grid.Field
	Size    float64
	Height  float64
	Tag     string
	Layer   LayerMask
}

// NewHeightfieldSurface wraps heights, tagged and on layer 1.
func NewHeightfieldSurface(heights *grid.Field, size, height float64, tag string) *HeightfieldSurface {
	return &HeightfieldSurface{Heights: heights, Size: size, Height: height, Tag: tag, Layer: 1}
}

// Bounds returns the full terrain volume.
func (s *HeightfieldSurface) Bounds() Bounds {
	return Bounds{Max: r3.Vec{X: s.Size, Y: s.Height, Z: s.Size}}
}

// ProbeDown intersects the bilinear surface below origin.
func (s *HeightfieldSurface) ProbeDown(origin r3.Vec, maxDistance float64, layers LayerMask) (Hit, bool) {
	if layers&s.Layer == 0 {
		return Hit{}, false
	}
	h := s.Heights
	cells := float64(h.W - 1)
	gx := origin.X / s.Size * cells
	gz := origin.Z / s.Size * float64(h.H-1)
	if gx < 0 || gz < 0 || gx > cells || gz > float64(h.H-1) {
		return Hit{}, false
	}

	x0 := min(int(gx), h.W-2)
	z0 := min(int(gz), h.H-2)
	fx := gx - float64(x0)
	fz := gz - float64(z0)

	h00 := float64(h.At(x0, z0))
	h10 := float64(h.At(x0+1, z0))
	h01 := float64(h.At(x0, z0+1))
	h11 := float64(h.At(x0+1, z0+1))

	top := h00 + (h10-h00)*fx
	bot := h01 + (h11-h01)*fx
	y := (top + (bot-top)*fz) * s.Height

	dist := origin.Y - y
	if dist < 0 || dist > maxDistance {
		return Hit{}, false
	}

	// Gradient of the bilinear patch in world units
	cellX := s.Size / cells
	cellZ := s.Size / float64(h.H-1)
	dhdx := ((h10-h00)*(1-fz) + (h11-h01)*fz) * s.Height / cellX
	dhdz := ((h01-h00)*(1-fx) + (h11-h10)*fx) * s.Height / cellZ

	return Hit{
		Point:  r3.Vec{X: origin.X, Y: y, Z: origin.Z},
		Normal: r3.Unit(r3.Vec{X: -dhdx, Y: 1, Z: -dhdz}),
		Tag:    s.Tag,
	}, true
}

// Plane is a flat horizontal surface, such as a water level, over a
// rectangular footprint.
type Plane struct {
	Y        float64
	Min, Max r3.Vec // Only X and Z are used
	Tag      string
	Layer    LayerMask
}

// ProbeDown hits the plane when origin is above it and inside the footprint.
func (p *Plane) ProbeDown(origin r3.Vec, maxDistance float64, layers LayerMask) (Hit, bool) {
	if layers&p.Layer == 0 {
		return Hit{}, false
	}
	if origin.X < p.Min.X || origin.X > p.Max.X || origin.Z < p.Min.Z || origin.Z > p.Max.Z {
		return Hit{}, false
	}
	dist := origin.Y - p.Y
	if dist < 0 || dist > maxDistance {
		return Hit{}, false
	}
	return Hit{Point: r3.Vec{X: origin.X, Y: p.Y, Z: origin.Z}, Normal: Up, Tag: p.Tag}, true
}

// Surfaces probes several queries and keeps the first surface encountered,
// the highest hit.
type Surfaces []SurfaceQuery

// ProbeDown returns the highest hit among all members.
func (ss Surfaces) ProbeDown(origin r3.Vec, maxDistance float64, layers LayerMask) (Hit, bool) {
	var best Hit
	found := false
	for _, s := range ss {
		h, ok := s.ProbeDown(origin, maxDistance, layers)
		if !ok {
			continue
		}
		if !found || h.Point.Y > best.Point.Y {
			best = h
			found = true
		}
	}
	return best, found
}
