// Package telemetry records pipeline timings and field statistics and
// writes them as CSV.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one stage of the pipeline.
type Phase uint8

const (
	PhaseNoise Phase = iota
	PhaseErosion
	PhaseApply
	PhaseScatter
	PhaseBatch
	PhasePoolTick
	PhaseSpawn
	numPhases
)

var phaseNames = [numPhases]string{
	PhaseNoise:    "noise",
	PhaseErosion:  "erosion",
	PhaseApply:    "apply",
	PhaseScatter:  "scatter",
	PhaseBatch:    "batch",
	PhasePoolTick: "pool_tick",
	PhaseSpawn:    "spawn",
}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       [numPhases]time.Duration
}

// PerfCollector tracks phase timings over a rolling window of ticks. A
// tick is one generate request or one pooling step. Recording never
// allocates.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PerfSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	// Frame timing (preview window)
	lastFrameTime time.Time
	frameDuration time.Duration

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
		now:        time.Now,
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = PerfSample{}
	p.inPhase = false
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	if p.inPhase {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

// Attribute moves d of the running phase into phase. It is used when a
// stage reports its own duration from inside another phase.
func (p *PerfCollector) Attribute(phase Phase, d time.Duration) {
	if !p.inPhase || d <= 0 {
		return
	}
	p.phaseStart = p.phaseStart.Add(d)
	p.current.Phases[phase] += d
}

// EndTick finishes the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := p.now()
	if p.inPhase {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
	p.current.TickDuration = now.Sub(p.tickStart)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame timing for the preview window.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Ticks           int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.sampleCount, FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	var phaseSum [numPhases]time.Duration
	for i := 0; i < p.sampleCount; i++ {
		smp := p.samples[i]
		total += smp.TickDuration
		if i == 0 || smp.TickDuration < s.MinTickDuration {
			s.MinTickDuration = smp.TickDuration
		}
		if smp.TickDuration > s.MaxTickDuration {
			s.MaxTickDuration = smp.TickDuration
		}
		for ph, d := range smp.Phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.sampleCount)
	s.AvgTickDuration = total / n
	for ph := range phaseSum {
		s.PhaseAvg[ph] = phaseSum[ph] / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if s.PhasePct[ph] > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", float64(int(s.PhasePct[ph]*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Label       string  `csv:"label"`
	Ticks       int     `csv:"ticks"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	NoisePct    float64 `csv:"noise_pct"`
	ErosionPct  float64 `csv:"erosion_pct"`
	ApplyPct    float64 `csv:"apply_pct"`
	ScatterPct  float64 `csv:"scatter_pct"`
	BatchPct    float64 `csv:"batch_pct"`
	PoolTickPct float64 `csv:"pool_tick_pct"`
	SpawnPct    float64 `csv:"spawn_pct"`
}

// ToCSV flattens s under label.
func (s PerfStats) ToCSV(label string) PerfStatsCSV {
	return PerfStatsCSV{
		Label:       label,
		Ticks:       s.Ticks,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		MinTickUS:   s.MinTickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		NoisePct:    s.PhasePct[PhaseNoise],
		ErosionPct:  s.PhasePct[PhaseErosion],
		ApplyPct:    s.PhasePct[PhaseApply],
		ScatterPct:  s.PhasePct[PhaseScatter],
		BatchPct:    s.PhasePct[PhaseBatch],
		PoolTickPct: s.PhasePct[PhasePoolTick],
		SpawnPct:    s.PhasePct[PhaseSpawn],
	}
}
