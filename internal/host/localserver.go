package host

import (
	"fmt"
	"image"
	"image/color"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// pyramidTileStop is the largest dimension of the smallest pyramid level.
const pyramidTileStop = 1024

// ProbeFile reads the pixel dimensions of a local image file without
// decoding the pixel data.
func ProbeFile(path string) (*PixelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header of %s: %w", path, err)
	}

	return &PixelInfo{
		Width:         config.Width,
		Height:        config.Height,
		NumChannels:   channelsForColorModel(config.ColorModel),
		NumZSlices:    1,
		NumTimepoints: 1,
		Levels:        buildPyramidLevels(config.Width, config.Height),
	}, nil
}

func channelsForColorModel(model color.Model) int {
	switch model {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.CMYKModel:
		return 4
	default:
		return 3
	}
}

// buildPyramidLevels derives a halving pyramid down to pyramidTileStop.
// Small images get a single full-resolution level.
func buildPyramidLevels(width, height int) []PixelLevel {
	levels := []PixelLevel{{Downsample: 1, Width: width, Height: height}}
	if width <= pyramidTileStop && height <= pyramidTileStop {
		return levels
	}
	downsample := 2.0
	for {
		w := int(float64(width) / downsample)
		h := int(float64(height) / downsample)
		if w < 1 || h < 1 {
			break
		}
		levels = append(levels, PixelLevel{Downsample: downsample, Width: w, Height: h})
		if w <= pyramidTileStop && h <= pyramidTileStop {
			break
		}
		downsample *= 2
	}
	return levels
}

// pixelServer is an ImageServer over recorded pixel info.
type pixelServer struct {
	info *PixelInfo
}

// NewPixelServer wraps recorded pixel info in an ImageServer.
func NewPixelServer(info *PixelInfo) ImageServer {
	return &pixelServer{info: info}
}

func (s *pixelServer) Width() int         { return s.info.Width }
func (s *pixelServer) Height() int        { return s.info.Height }
func (s *pixelServer) NumChannels() int   { return s.info.NumChannels }
func (s *pixelServer) NumZSlices() int    { return s.info.NumZSlices }
func (s *pixelServer) NumTimepoints() int { return s.info.NumTimepoints }

func (s *pixelServer) Levels() []PixelLevel {
	levels := make([]PixelLevel, len(s.info.Levels))
	copy(levels, s.info.Levels)
	return levels
}
