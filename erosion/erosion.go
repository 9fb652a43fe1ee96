// Package erosion implements droplet-based hydraulic erosion over a square
// height field.
//
// Droplets run strictly one after another: every droplet reads the heights
// written by the droplets before it, so the order of the seeded sequence is
// part of the result.
package erosion

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/landgen/grid"
)

// Reason records why a droplet stopped.
type Reason uint8

const (
	OutOfBounds   Reason = iota // Left the interior or the brush margin
	ZeroDirection               // Flat spot with no inertia left
	MaxSteps                    // Path length exhausted
	numReasons
)

func (r Reason) String() string {
	switch r {
	case OutOfBounds:
		return "out_of_bounds"
	case ZeroDirection:
		return "zero_direction"
	case MaxSteps:
		return "max_steps"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// Droplet is one simulated water parcel.
type Droplet struct {
	X, Y       float32 // Sub-cell position
	DirX, DirY float32 // Unit or zero
	Speed      float32
	Water      float32
	Sediment   float32
}

// Stats summarizes one Erode call. Eroded counts material removed from the
// field, Deposited counts sediment released by droplets and Suspended the
// sediment still carried when droplets terminated, so
// Eroded ~= Deposited + Suspended. Splatted is the part of Deposited written
// back into the field.
type Stats struct {
	Droplets     int
	Steps        int
	Terminations [numReasons]int
	Eroded       float64
	Deposited    float64
	Suspended    float64
	Splatted     float64
}

// Terminated returns how many droplets stopped for reason r.
func (s Stats) Terminated(r Reason) int {
	if r >= numReasons {
		return 0
	}
	return s.Terminations[r]
}

// Result holds the mutated field and the intensity masks of one call.
type Result struct {
	Heights        *grid.Field
	ErosionMask    *grid.Field
	DepositionMask *grid.Field
	Stats          Stats
}

type brushCell struct {
	dx, dy int
	weight float32
}

// Simulator erodes height fields with a fixed parameter set. Its random
// sequence continues across calls; create a new Simulator to replay one.
type Simulator struct {
	params Params
	rng    *rand.Rand
	brush  []brushCell
}

// New validates p and precomputes the erosion brush.
func New(p Params) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		params: p,
		rng:    rand.New(rand.NewSource(p.Seed)),
	}

	r := p.ErosionRadius
	rf := float32(r)
	for x := -r; x < r; x++ {
		for y := -r; y < r; y++ {
			d2 := x*x + y*y
			if d2 >= r*r {
				continue
			}
			w := 1 - float32(math.Sqrt(float64(d2)))/rf
			s.brush = append(s.brush, brushCell{dx: x, dy: y, weight: w})
		}
	}
	return s, nil
}

// Params returns the simulator's parameters.
func (s *Simulator) Params() Params { return s.params }

// Erode runs every droplet over heights, mutating it in place.
func (s *Simulator) Erode(heights *grid.Field, mapSize int) (Result, error) {
	if heights.W != mapSize || heights.H != mapSize {
		return Result{}, fmt.Errorf("erosion: field is %dx%d, map size %d", heights.W, heights.H, mapSize)
	}
	if mapSize < 2 {
		return Result{}, fmt.Errorf("erosion: map size %d too small", mapSize)
	}

	res := Result{
		Heights:        heights,
		ErosionMask:    grid.NewSquare(mapSize),
		DepositionMask: grid.NewSquare(mapSize),
	}

	span := float32(mapSize - 1)
	for i := 0; i < s.params.NumberOfDroplets; i++ {
		d := Droplet{
			X:     s.rng.Float32() * span,
			Y:     s.rng.Float32() * span,
			Speed: 1,
			Water: 1,
		}
		reason := s.run(&d, &res)
		res.Stats.Droplets++
		res.Stats.Terminations[reason]++
		res.Stats.Suspended += float64(d.Sediment)
	}

	slog.Debug("erosion finished",
		"droplets", res.Stats.Droplets,
		"steps", res.Stats.Steps,
		"eroded", res.Stats.Eroded,
		"deposited", res.Stats.Deposited,
	)
	return res, nil
}

// run advances one droplet until it terminates.
func (s *Simulator) run(d *Droplet, res *Result) Reason {
	p := &s.params
	h := res.Heights
	size := h.W
	r := p.ErosionRadius

	for step := 0; step < p.MaxDropletPath; step++ {
		cx, cy := int(d.X), int(d.Y)
		alpha := d.X - float32(cx)
		beta := d.Y - float32(cy)

		hNW := h.At(cx, cy)
		hNE := h.At(cx+1, cy)
		hSW := h.At(cx, cy+1)
		hSE := h.At(cx+1, cy+1)

		// Bilinear interpolation of the cell's finite differences
		gradX := (hNE-hNW)*(1-beta) + (hSE-hSW)*beta
		gradY := (hSW-hNW)*(1-alpha) + (hSE-hNE)*alpha

		d.DirX, d.DirY = normalize(
			d.DirX*p.Inertia-gradX*(1-p.Inertia),
			d.DirY*p.Inertia-gradY*(1-p.Inertia),
		)
		if d.DirX == 0 && d.DirY == 0 {
			return ZeroDirection
		}

		d.X += d.DirX
		d.Y += d.DirY
		if d.X < 0 || d.X >= float32(size-1) || d.Y < 0 || d.Y >= float32(size-1) {
			return OutOfBounds
		}

		heightDelta := h.At(int(d.X), int(d.Y)) - hNW
		capacity := max(-heightDelta, p.MinimumSlope) * d.Speed * d.Water * p.SedimentCapacity

		if heightDelta > 0 || d.Sediment > capacity {
			var amount float32
			if heightDelta > 0 {
				amount = min(heightDelta, d.Sediment)
			} else {
				amount = (d.Sediment - capacity) * p.DepositionSpeed
			}
			d.Sediment -= amount
			res.Stats.Deposited += float64(amount)

			// Only the near corner receives material
			splat := amount * (1 - alpha) * (1 - beta)
			h.Add(cx, cy, splat)
			res.DepositionMask.Add(cx, cy, splat)
			res.Stats.Splatted += float64(splat)
		} else {
			amount := min((capacity-d.Sediment)*p.ErosionSpeed, -heightDelta)

			if cy <= r || cy >= size-r || cx <= r+1 || cx >= size-r {
				return OutOfBounds
			}
			res.ErosionMask.Add(cx, cy, amount)

			for _, b := range s.brush {
				x, y := cx+b.dx, cy+b.dy
				if !h.InBounds(x, y) {
					continue
				}
				want := amount * b.weight
				cur := h.At(x, y)
				delta := want
				if cur < want {
					delta = max(cur, 0)
				}
				h.Add(x, y, -delta)
				d.Sediment += delta
				res.Stats.Eroded += float64(delta)
			}
		}

		d.Speed = float32(math.Sqrt(math.Max(0, float64(d.Speed*d.Speed+heightDelta*p.Gravity))))
		d.Water *= 1 - p.EvaporationSpeed
		res.Stats.Steps++
	}
	return MaxSteps
}

// minDirection is the shortest flow vector that still has a direction.
const minDirection = 1e-5

// normalize returns the unit vector, or zero when the input is no longer
// than minDirection.
func normalize(x, y float32) (float32, float32) {
	l := float32(math.Sqrt(float64(x*x + y*y)))
	if l <= minDirection {
		return 0, 0
	}
	return x / l, y / l
}
