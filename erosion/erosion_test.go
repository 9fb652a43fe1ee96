package erosion

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/noise"
)

func testField(t *testing.T, size int) *grid.Field {
	t.Helper()
	f, err := noise.Generate(size, size, 310, -42, noise.Config{
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2,
		Scale:       3,
		Seed:        7,

		Normalization: 0.5,
	})
	if err != nil {
		t.Fatalf("generating test field: %v", err)
	}
	return f
}

func testParams() Params {
	p := Average()
	p.NumberOfDroplets = 3000
	p.Seed = 21
	return p
}

func TestErodeNoDropletsIsNoop(t *testing.T) {
	field := testField(t, 32)
	before := field.Clone()

	sim, err := New(Params{NumberOfDroplets: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := sim.Erode(field, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Heights != field {
		t.Error("expected result to reference the input field")
	}
	if !field.Equal(before) {
		t.Error("expected field to be unchanged with zero droplets")
	}
	if res.ErosionMask.Sum() != 0 || res.DepositionMask.Sum() != 0 {
		t.Errorf("expected all-zero masks, got erosion=%f deposition=%f",
			res.ErosionMask.Sum(), res.DepositionMask.Sum())
	}
}

func TestErodeConservesSediment(t *testing.T) {
	field := testField(t, 64)

	sim, err := New(testParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := sim.Erode(field, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := res.Stats
	if s.Eroded <= 0 {
		t.Fatalf("expected some erosion, got %f", s.Eroded)
	}
	diff := math.Abs(s.Eroded - (s.Deposited + s.Suspended))
	if diff > 1e-3*math.Max(1, s.Eroded) {
		t.Errorf("sediment not conserved: eroded=%f deposited=%f suspended=%f", s.Eroded, s.Deposited, s.Suspended)
	}
	if s.Splatted > s.Deposited+1e-6 {
		t.Errorf("splatted %f exceeds deposited %f", s.Splatted, s.Deposited)
	}
}

func TestErodeDeterministic(t *testing.T) {
	a := testField(t, 48)
	b := a.Clone()

	simA, _ := New(testParams())
	simB, _ := New(testParams())

	resA, err := simA.Erode(a, 48)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resB, err := simB.Erode(b, 48)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !a.Equal(b) {
		t.Error("expected identical heights for identical seeds")
	}
	if !resA.ErosionMask.Equal(resB.ErosionMask) || !resA.DepositionMask.Equal(resB.DepositionMask) {
		t.Error("expected identical masks for identical seeds")
	}
}

func TestErodeMasksAndHeightsNonNegative(t *testing.T) {
	field := testField(t, 48)
	sim, _ := New(testParams())
	res, err := sim.Erode(field, 48)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for name, f := range map[string]*grid.Field{
		"heights":    res.Heights,
		"erosion":    res.ErosionMask,
		"deposition": res.DepositionMask,
	} {
		if lo, _ := f.MinMax(); lo < 0 {
			t.Errorf("%s: expected non-negative samples, min=%f", name, lo)
		}
	}

	var total int
	for r := Reason(0); r < numReasons; r++ {
		total += res.Stats.Terminated(r)
	}
	if total != res.Stats.Droplets {
		t.Errorf("expected %d terminations, got %d", res.Stats.Droplets, total)
	}
}

func TestErodeFlatFieldStopsImmediately(t *testing.T) {
	field := grid.NewSquare(16)
	for i := range field.Data() {
		field.Data()[i] = 0.5
	}

	p := testParams()
	p.NumberOfDroplets = 50
	sim, _ := New(p)
	res, err := sim.Erode(field, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := res.Stats.Terminated(ZeroDirection); got != 50 {
		t.Errorf("expected all 50 droplets to stop on flat ground, got %d", got)
	}
	if res.Stats.Steps != 0 {
		t.Errorf("expected no steps, got %d", res.Stats.Steps)
	}
}

func TestNormalize(t *testing.T) {
	x, y := normalize(3e-5, 4e-5)
	if math.Abs(float64(x)-0.6) > 1e-4 || math.Abs(float64(y)-0.8) > 1e-4 {
		t.Errorf("expected (0.6, 0.8), got (%f, %f)", x, y)
	}
	if x, y := normalize(minDirection/2, minDirection/2); x != 0 || y != 0 {
		t.Errorf("expected zero below the threshold, got (%f, %f)", x, y)
	}
	if x, y := normalize(0, -2e-6); x != 0 || y != 0 {
		t.Errorf("expected zero for vanishing input, got (%f, %f)", x, y)
	}
}

func TestErodeShallowSlope(t *testing.T) {
	slope := func(perCell float32) *grid.Field {
		f := grid.NewSquare(16)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				f.Set(x, y, 0.5+float32(x)*perCell)
			}
		}
		return f
	}
	p := testParams()
	p.NumberOfDroplets = 50

	// Gradients below the direction threshold count as flat
	sim, _ := New(p)
	res, err := sim.Erode(slope(1e-7), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Stats.Terminated(ZeroDirection); got != 50 || res.Stats.Steps != 0 {
		t.Errorf("expected all droplets to stop in place, got %d stops and %d steps", got, res.Stats.Steps)
	}

	sim, _ = New(p)
	res, err = sim.Erode(slope(1e-3), 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.Steps == 0 {
		t.Error("expected droplets to flow down a measurable slope")
	}
}

func TestErodeRejectsMismatchedSize(t *testing.T) {
	sim, _ := New(testParams())
	if _, err := sim.Erode(grid.New(8, 9), 8); err == nil {
		t.Error("expected error for non-square field")
	}
}

func TestParamsValidate(t *testing.T) {
	p := testParams()
	p.Inertia = 1.5
	if _, err := New(p); !errors.Is(err, ErrParams) {
		t.Errorf("expected ErrParams, got %v", err)
	}

	if _, err := Preset("volcanic"); err == nil {
		t.Error("expected error for unknown preset")
	}
	for _, name := range []string{"subtle", "average", "heavy"} {
		p, err := Preset(name)
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
