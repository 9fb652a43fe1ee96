package terrain

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/scatter"
)

// VegetationRow is one vegetation record in vegetation.csv.
type VegetationRow struct {
	Prototype   int     `csv:"prototype"`
	Prefab      string  `csv:"prefab"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Z           float64 `csv:"z"`
	Rotation    float64 `csv:"rotation"`
	WidthScale  float64 `csv:"width_scale"`
	HeightScale float64 `csv:"height_scale"`
}

// ImageSink writes terrain data to a directory: heights.png, the mask
// images and vegetation.csv. Write errors are logged and kept in Err.
type ImageSink struct {
	MemorySink
	Dir string
	Err error
}

// NewImageSink creates dir if needed.
func NewImageSink(dir string) (*ImageSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating terrain output directory: %w", err)
	}
	return &ImageSink{Dir: dir}, nil
}

func (s *ImageSink) fail(what string, err error) {
	if err == nil {
		return
	}
	slog.Error("terrain output failed", "file", what, "error", err)
	if s.Err == nil {
		s.Err = err
	}
}

func (s *ImageSink) SetHeights(heights *grid.Field, size, height float64) {
	s.MemorySink.SetHeights(heights, size, height)
	s.fail("heights.png", writePNG(filepath.Join(s.Dir, "heights.png"), HeightImage(heights)))
}

func (s *ImageSink) ApplyMaterialMask(erosion, deposition *grid.Field) {
	s.MemorySink.ApplyMaterialMask(erosion, deposition)
	s.fail("erosion_mask.png", writePNG(filepath.Join(s.Dir, "erosion_mask.png"), s.Erosion))
	if s.Deposition != nil {
		s.fail("deposition_mask.png", writePNG(filepath.Join(s.Dir, "deposition_mask.png"), s.Deposition))
	}
}

func (s *ImageSink) SetVegetationInstances(protos []*scatter.Prefab, inst []scatter.VegetationInstance) {
	s.MemorySink.SetVegetationInstances(protos, inst)
	if len(inst) == 0 {
		return
	}
	rows := make([]VegetationRow, len(inst))
	for i, v := range inst {
		rows[i] = VegetationRow{
			Prototype:   v.Prototype,
			X:           v.Position.X,
			Y:           v.Position.Y,
			Z:           v.Position.Z,
			Rotation:    v.Rotation,
			WidthScale:  v.WidthScale,
			HeightScale: v.HeightScale,
		}
		if v.Prototype >= 0 && v.Prototype < len(protos) {
			rows[i].Prefab = protos[v.Prototype].Name
		}
	}
	s.fail("vegetation.csv", writeCSV(filepath.Join(s.Dir, "vegetation.csv"), rows))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
