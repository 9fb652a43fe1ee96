package noise

import (
	"errors"
	"fmt"
	"sort"
)

// Curve maps raw accumulated noise into the stored output domain.
// Range reports the closed interval every Evaluate result lies in.
type Curve interface {
	Evaluate(v float64) float64
	Range() (lo, hi float64)
}

// Clamp01 is the default response: identity clamped to [0,1].
type Clamp01 struct{}

// Evaluate clamps v to [0,1].
func (Clamp01) Evaluate(v float64) float64 { return clamp01(v) }

// Range returns [0,1].
func (Clamp01) Range() (float64, float64) { return 0, 1 }

// Key is one control point of a KeyframeCurve.
type Key struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// ErrCurveNotMonotonic is returned for keys whose values decrease.
var ErrCurveNotMonotonic = errors.New("noise: curve values must not decrease")

// KeyframeCurve is a piecewise linear response with constant extrapolation
// past the first and last key.
type KeyframeCurve struct {
	keys   []Key
	lo, hi float64
}

// NewKeyframeCurve validates and sorts keys. At least one key is required,
// times must be distinct and values non-decreasing in time order.
func NewKeyframeCurve(keys ...Key) (*KeyframeCurve, error) {
	if len(keys) == 0 {
		return nil, errors.New("noise: curve needs at least one key")
	}
	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time == sorted[i-1].Time {
			return nil, fmt.Errorf("noise: duplicate curve key at t=%g", sorted[i].Time)
		}
		if sorted[i].Value < sorted[i-1].Value {
			return nil, fmt.Errorf("%w: key %d (t=%g)", ErrCurveNotMonotonic, i, sorted[i].Time)
		}
	}

	return &KeyframeCurve{
		keys: sorted,
		lo:   sorted[0].Value,
		hi:   sorted[len(sorted)-1].Value,
	}, nil
}

// Evaluate interpolates between the surrounding keys.
func (c *KeyframeCurve) Evaluate(v float64) float64 {
	keys := c.keys
	if v <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if v >= last.Time {
		return last.Value
	}

	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > v })
	a, b := keys[i-1], keys[i]
	t := (v - a.Time) / (b.Time - a.Time)
	return a.Value + (b.Value-a.Value)*t
}

// Range returns the first and last key values.
func (c *KeyframeCurve) Range() (float64, float64) { return c.lo, c.hi }
