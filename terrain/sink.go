// Package terrain generates height fields and hands them to a terrain sink.
package terrain

import (
	"image"
	"image/color"
	"math"

	"github.com/pthm-cable/landgen/grid"
	"github.com/pthm-cable/landgen/scatter"
)

// Mask gains applied when converting masks to 8-bit images.
const (
	ErosionGain    = 20
	DepositionGain = 255
	SingleMaskGain = 2
)

// Sink receives generated terrain data.
type Sink interface {
	// SetHeights stores normalized heights for a terrain of the given world
	// size and height.
	SetHeights(heights *grid.Field, size, height float64)
	// ApplyMaterialMask binds mask images. A nil deposition mask selects the
	// single-mask variant.
	ApplyMaterialMask(erosion, deposition *grid.Field)
	scatter.VegetationSink
}

// MaskImage converts f to a grayscale image. Every sample is scaled by gain
// into a [0,1] channel intensity, clamped, then quantized to 8 bits. Pixel
// (x, y) holds sample (x, y).
func MaskImage(f *grid.Field, gain float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			v := math.Max(0, math.Min(1, float64(f.At(x, y))*gain))
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v * math.MaxUint8))})
		}
	}
	return img
}

// MaskImages returns the erosion and deposition textures. With a nil
// deposition mask only the erosion texture is produced, at the single-mask
// gain.
func MaskImages(erosion, deposition *grid.Field) (ero, dep *image.Gray) {
	if deposition == nil {
		return MaskImage(erosion, SingleMaskGain), nil
	}
	return MaskImage(erosion, ErosionGain), MaskImage(deposition, DepositionGain)
}

// HeightImage converts normalized heights to a 16-bit grayscale image.
func HeightImage(f *grid.Field) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			v := math.Max(0, math.Min(1, float64(f.At(x, y))))
			img.SetGray16(x, y, color.Gray16{Y: uint16(math.Round(v * math.MaxUint16))})
		}
	}
	return img
}

// MemorySink keeps the last data it received.
type MemorySink struct {
	Heights    *grid.Field
	Size       float64
	Height     float64
	Erosion    *image.Gray
	Deposition *image.Gray

	Prototypes []*scatter.Prefab
	Vegetation []scatter.VegetationInstance
}

func (s *MemorySink) SetHeights(heights *grid.Field, size, height float64) {
	s.Heights, s.Size, s.Height = heights, size, height
}

func (s *MemorySink) ApplyMaterialMask(erosion, deposition *grid.Field) {
	s.Erosion, s.Deposition = MaskImages(erosion, deposition)
}

func (s *MemorySink) SetVegetationInstances(protos []*scatter.Prefab, inst []scatter.VegetationInstance) {
	s.Prototypes = protos
	s.Vegetation = append(s.Vegetation[:0], inst...)
}

// Surface exposes the stored heights as a probe target.
func (s *MemorySink) Surface(tag string) *scatter.HeightfieldSurface {
	if s.Heights == nil {
		return nil
	}
	return scatter.NewHeightfieldSurface(s.Heights, s.Size, s.Height, tag)
}
