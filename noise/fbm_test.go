package noise

import (
	"errors"
	"testing"

	"github.com/pthm-cable/landgen/grid"
)

func testConfig() Config {
	return Config{
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2,
		Scale:       4,
		Seed:        1337,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	for _, backend := range []string{BackendPerlin, BackendSimplex} {
		cfg := testConfig()
		cfg.Backend = backend

		a, err := Generate(48, 48, 120, -75, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", backend, err)
		}
		b, err := Generate(48, 48, 120, -75, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", backend, err)
		}

		if !a.Equal(b) {
			t.Errorf("%s: expected identical fields for identical arguments", backend)
		}
	}
}

func TestGenerateSeedChangesField(t *testing.T) {
	cfg := testConfig()
	a, _ := Generate(32, 32, 0, 0, cfg)

	cfg.Seed++
	b, _ := Generate(32, 32, 0, 0, cfg)

	if a.Equal(b) {
		t.Error("expected different seeds to produce different fields")
	}
}

func TestGenerateWithinCurveRange(t *testing.T) {
	curve, err := NewKeyframeCurve(Key{Time: 0.2, Value: 0.1}, Key{Time: 1.2, Value: 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	configs := []Config{
		testConfig(),
		{Octaves: 1, Persistence: 1, Lacunarity: 0, Scale: 1, Seed: 3},
		{Octaves: 10, Persistence: 1, Lacunarity: 4, Scale: 12, Seed: 9, Backend: BackendSimplex},
	}

	for i, cfg := range configs {
		for _, c := range []Curve{nil, curve} {
			cfg.Curve = c
			f, err := Generate(40, 40, 0, 0, cfg)
			if err != nil {
				t.Fatalf("config %d: unexpected error: %v", i, err)
			}

			var r Curve = Clamp01{}
			if c != nil {
				r = c
			}
			lo, hi := r.Range()
			fmin, fmax := f.MinMax()
			// stored samples are float32
			const eps = 1e-6
			if float64(fmin) < lo-eps || float64(fmax) > hi+eps {
				t.Errorf("config %d: field range [%f,%f] outside curve range [%f,%f]", i, fmin, fmax, lo, hi)
			}
		}
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Octaves = 0
	if _, err := Generate(8, 8, 0, 0, cfg); !errors.Is(err, ErrOctaves) {
		t.Errorf("expected ErrOctaves, got %v", err)
	}

	cfg = testConfig()
	cfg.Persistence = 1.5
	if _, err := Generate(8, 8, 0, 0, cfg); !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}

	cfg = testConfig()
	cfg.Backend = "worley"
	if _, err := Generate(8, 8, 0, 0, cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestDrawOffsetReproducible(t *testing.T) {
	x1, z1 := DrawOffset(99, TerrainOffsetSpread)
	x2, z2 := DrawOffset(99, TerrainOffsetSpread)
	if x1 != x2 || z1 != z2 {
		t.Errorf("expected identical offsets, got (%f,%f) and (%f,%f)", x1, z1, x2, z2)
	}
	if x1 < -TerrainOffsetSpread || x1 >= TerrainOffsetSpread || z1 < -TerrainOffsetSpread || z1 >= TerrainOffsetSpread {
		t.Errorf("offset (%f,%f) outside spread", x1, z1)
	}
}

func TestScatterMaskInvert(t *testing.T) {
	cfg := Config{Octaves: 1, Persistence: 0.5, Lacunarity: 2, Scale: 6, Seed: 11}

	plain, err := ScatterMask(24, 24, 24, cfg, MaskOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, err := ScatterMask(24, 24, 24, cfg, MaskOptions{Invert: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, v := range plain.Data() {
		if got := inv.Data()[i]; got != 1-v {
			t.Fatalf("sample %d: expected %f, got %f", i, 1-v, got)
		}
		if v < 0 || v > 1 {
			t.Fatalf("sample %d: single-octave mask value %f outside [0,1]", i, v)
		}
	}
}

func TestKeyframeCurve(t *testing.T) {
	c, err := NewKeyframeCurve(Key{Time: 1, Value: 1}, Key{Time: 0, Value: 0}, Key{Time: 0.5, Value: 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct{ in, want float64 }{
		{-1, 0},
		{0.25, 0.1},
		{0.75, 0.6},
		{2, 1},
	}
	for _, tc := range cases {
		if got := c.Evaluate(tc.in); got < tc.want-1e-9 || got > tc.want+1e-9 {
			t.Errorf("Evaluate(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}

	if _, err := NewKeyframeCurve(Key{Time: 0, Value: 1}, Key{Time: 1, Value: 0}); !errors.Is(err, ErrCurveNotMonotonic) {
		t.Errorf("expected ErrCurveNotMonotonic, got %v", err)
	}
}

func TestFillAtSharesSeam(t *testing.T) {
	g, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	const n = 17
	left := grid.NewSquare(n)
	right := grid.NewSquare(n)
	g.FillAt(left, 5, 9, 0, 0, n-1)
	g.FillAt(right, 5, 9, n-1, 0, n-1)

	for z := 0; z < n; z++ {
		if left.At(n-1, z) != right.At(0, z) {
			t.Fatalf("row %d: seam mismatch %f vs %f", z, left.At(n-1, z), right.At(0, z))
		}
	}
}
