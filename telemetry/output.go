package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/landgen/config"
)

// csvFile appends records, writing the header only once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager writes run output as CSV files in one directory.
type OutputManager struct {
	dir   string
	files map[string]*csvFile
}

// Output file names.
const (
	PerfFile       = "perf.csv"
	ErosionFile    = "erosion.csv"
	FieldsFile     = "fields.csv"
	PlacementsFile = "placements.csv"
	SummaryFile    = "scatter_summary.csv"
)

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, files: make(map[string]*csvFile)}
	for _, name := range []string{PerfFile, ErosionFile, FieldsFile, PlacementsFile, SummaryFile} {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		om.files[name] = &csvFile{f: f}
	}
	return om, nil
}

func (om *OutputManager) write(name string, records any) error {
	if om == nil {
		return nil
	}
	if err := om.files[name].write(records); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf appends a performance record under label.
func (om *OutputManager) WritePerf(stats PerfStats, label string) error {
	return om.write(PerfFile, []PerfStatsCSV{stats.ToCSV(label)})
}

// WriteErosion appends an erosion run record.
func (om *OutputManager) WriteErosion(row ErosionRow) error {
	return om.write(ErosionFile, []ErosionRow{row})
}

// WriteFields appends field statistics.
func (om *OutputManager) WriteFields(stats ...FieldStats) error {
	if len(stats) == 0 {
		return nil
	}
	return om.write(FieldsFile, stats)
}

// WritePlacements appends placement records and their per-spec summary.
func (om *OutputManager) WritePlacements(rows []PlacementRow, summary []ScatterSummary) error {
	if len(rows) > 0 {
		if err := om.write(PlacementsFile, rows); err != nil {
			return err
		}
	}
	if len(summary) > 0 {
		return om.write(SummaryFile, summary)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, c := range om.files {
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
