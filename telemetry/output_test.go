package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/landgen/config"
)

func TestNilOutputManagerIsNoop(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected disabled output, got %v %v", om, err)
	}
	if err := om.WritePerf(PerfStats{}, "x"); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
	if err := om.WriteFields(FieldStats{Name: "h"}); err != nil {
		t.Errorf("expected no-op, got %v", err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("expected empty dir and clean close")
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, label := range []string{"generate", "scatter", "pool"} {
		if err := om.WritePerf(PerfStats{Ticks: 1}, label); err != nil {
			t.Fatalf("writing perf: %v", err)
		}
	}
	if err := om.WritePlacements(nil, []ScatterSummary{{Spec: "forest", Kind: "batched", Count: 3}}); err != nil {
		t.Fatalf("writing summary: %v", err)
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, PerfFile))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "label,") || strings.Count(string(data), "label,") != 1 {
		t.Errorf("expected a single header, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "pool,") {
		t.Errorf("expected rows in write order, got %q", lines[3])
	}

	summary, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(summary), "forest,batched,3") {
		t.Errorf("unexpected summary %q", summary)
	}

	placements, err := os.ReadFile(filepath.Join(dir, PlacementsFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(placements) != 0 {
		t.Error("expected no placements written for empty rows")
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config snapshot to reload: %v", err)
	}
}
