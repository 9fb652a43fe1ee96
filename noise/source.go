// Package noise synthesizes seeded fractal noise fields for terrain heights
// and scatter masks.
package noise

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Backend names accepted in configuration.
const (
	BackendPerlin  = "perlin"
	BackendSimplex = "simplex"
)

// Source is a seeded 2D coherent noise function returning values in [0,1].
type Source interface {
	Sample(x, y float64) float64
}

// PerlinSource wraps a single-octave gradient noise generator.
// Octave layering is done by the fractal generator, not by the library.
type PerlinSource struct {
	p *perlin.Perlin
}

// NewPerlinSource creates a Perlin source for the given seed.
func NewPerlinSource(seed int64) *PerlinSource {
	return &PerlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
}

// Sample maps the library's signed output into [0,1].
func (s *PerlinSource) Sample(x, y float64) float64 {
	return clamp01((s.p.Noise2D(x, y) + 1) * 0.5)
}

// SimplexSource wraps normalized OpenSimplex noise.
type SimplexSource struct {
	n opensimplex.Noise
}

// NewSimplexSource creates a simplex source for the given seed.
func NewSimplexSource(seed int64) *SimplexSource {
	return &SimplexSource{n: opensimplex.NewNormalized(seed)}
}

// Sample returns normalized simplex noise.
func (s *SimplexSource) Sample(x, y float64) float64 {
	return s.n.Eval2(x, y)
}

// NewSource builds the named backend. An empty name selects Perlin.
func NewSource(backend string, seed int64) (Source, error) {
	switch backend {
	case "", BackendPerlin:
		return NewPerlinSource(seed), nil
	case BackendSimplex:
		return NewSimplexSource(seed), nil
	default:
		return nil, fmt.Errorf("noise: unknown backend %q", backend)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
