package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/landgen/erosion"
	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/scatter"
)

// FieldStats summarizes the samples of a field.
type FieldStats struct {
	Name   string  `csv:"field"`
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"stddev"`
	P10    float64 `csv:"p10"`
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`
	Sum    float64 `csv:"sum"`
	// Nonzero counts samples above zero, such as cells touched by erosion.
	Nonzero int `csv:"nonzero"`
}

// ComputeFieldStats computes distribution statistics for f.
func ComputeFieldStats(name string, f *grid.Field) FieldStats {
	data := f.Data()
	s := FieldStats{Name: name}
	if len(data) == 0 {
		return s
	}

	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
		if v > 0 {
			s.Nonzero++
		}
	}

	s.Sum = floats.Sum(xs)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)

	sort.Float64s(xs)
	s.P10 = stat.Quantile(0.1, stat.Empirical, xs, nil)
	s.P50 = stat.Quantile(0.5, stat.Empirical, xs, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, xs, nil)
	return s
}

// LogValue implements slog.LogValuer.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("stddev", s.StdDev),
		slog.Int("nonzero", s.Nonzero),
	)
}

// ErosionRow is a flat record of one erosion run.
type ErosionRow struct {
	Seed          int64   `csv:"seed"`
	Droplets      int     `csv:"droplets"`
	Steps         int     `csv:"steps"`
	OutOfBounds   int     `csv:"out_of_bounds"`
	ZeroDirection int     `csv:"zero_direction"`
	MaxSteps      int     `csv:"max_steps"`
	Eroded        float64 `csv:"eroded"`
	Deposited     float64 `csv:"deposited"`
	Suspended     float64 `csv:"suspended"`
	Splatted      float64 `csv:"splatted"`
}

// ErosionRowFrom flattens erosion statistics.
func ErosionRowFrom(seed int64, s erosion.Stats) ErosionRow {
	return ErosionRow{
		Seed:          seed,
		Droplets:      s.Droplets,
		Steps:         s.Steps,
		OutOfBounds:   s.Terminated(erosion.OutOfBounds),
		ZeroDirection: s.Terminated(erosion.ZeroDirection),
		MaxSteps:      s.Terminated(erosion.MaxSteps),
		Eroded:        s.Eroded,
		Deposited:     s.Deposited,
		Suspended:     s.Suspended,
		Splatted:      s.Splatted,
	}
}

// PlacementRow is one accepted placement in placements.csv.
type PlacementRow struct {
	Spec     string  `csv:"spec"`
	Kind     string  `csv:"kind"`
	Prefab   string  `csv:"prefab"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
	Yaw      float64 `csv:"yaw"`
	Scale    float64 `csv:"scale"`
	Slope    float64 `csv:"slope"`
	Height   float64 `csv:"height"`
	Noise    float64 `csv:"noise"`
	PoolTag  string  `csv:"pool_tag"`
	Children int     `csv:"children"`
}

// PlacementRows flattens candidates.
func PlacementRows(cands []scatter.Candidate) []PlacementRow {
	rows := make([]PlacementRow, len(cands))
	for i := range cands {
		c := &cands[i]
		r := PlacementRow{
			Kind:     c.Kind.String(),
			X:        c.Position.X,
			Y:        c.Position.Y,
			Z:        c.Position.Z,
			Yaw:      c.Rotation.Y,
			Scale:    c.Scale.X,
			Slope:    c.Normal.Y,
			Height:   c.NormalizedHeight,
			Noise:    c.NoiseValue,
			PoolTag:  c.PoolTag,
			Children: len(c.Children),
		}
		if c.Spec != nil {
			r.Spec = c.Spec.Name
		}
		if c.Prefab != nil {
			r.Prefab = c.Prefab.Name
		}
		rows[i] = r
	}
	return rows
}

// ScatterSummary counts placements per spec and kind.
type ScatterSummary struct {
	Spec  string `csv:"spec"`
	Kind  string `csv:"kind"`
	Count int    `csv:"count"`
}

// Summarize groups candidates by spec in first-seen order.
func Summarize(cands []scatter.Candidate) []ScatterSummary {
	var out []ScatterSummary
	index := make(map[*scatter.PlacementSpec]int)
	for i := range cands {
		c := &cands[i]
		j, ok := index[c.Spec]
		if !ok {
			j = len(out)
			index[c.Spec] = j
			s := ScatterSummary{Kind: c.Kind.String()}
			if c.Spec != nil {
				s.Spec = c.Spec.Name
			}
			out = append(out, s)
		}
		out[j].Count++
	}
	return out
}
