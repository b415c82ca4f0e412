// Package render rasterizes annotation hierarchies into PNG overlays.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/paulmach/orb"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/jo-hoe/slideframe/internal/hierarchy"
)

// defaultStrokeColor is used for objects without a classification.
const defaultStrokeColor = "#ff0000"

// OverlayPNG renders the annotations and detections of a hierarchy as a
// transparent PNG covering the full image plane, scaled down by the
// given downsample factor.
func OverlayPNG(h *hierarchy.Hierarchy, imageWidth, imageHeight int, downsample float64) ([]byte, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions for overlay rendering: %dx%d", imageWidth, imageHeight)
	}
	if downsample < 1 {
		return nil, fmt.Errorf("invalid downsample factor %v, must be >= 1", downsample)
	}

	targetW := int(float64(imageWidth) / downsample)
	targetH := int(float64(imageHeight) / downsample)
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	svgData := buildOverlaySVG(h, imageWidth, imageHeight)

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse overlay SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	// transparent canvas so the overlay can be composed over tiles
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	var buf bytes.Buffer
	buf.Grow(targetW * targetH)
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode overlay as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// buildOverlaySVG composes an SVG document in full resolution image
// coordinates. Scaling happens during rasterization.
func buildOverlaySVG(h *hierarchy.Hierarchy, imageWidth, imageHeight int) []byte {
	var builder strings.Builder
	fmt.Fprintf(&builder,
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`,
		imageWidth, imageHeight)

	for _, object := range h.Objects() {
		appendObject(&builder, object)
	}

	builder.WriteString(`</svg>`)
	return []byte(builder.String())
}

func appendObject(builder *strings.Builder, object *hierarchy.PathObject) {
	pathData := pathDataForGeometry(object.ROI)
	if pathData == "" {
		return
	}
	stroke := defaultStrokeColor
	if object.Classification != nil {
		stroke = hexColor(object.Classification.ColorRGB)
	}
	fmt.Fprintf(builder,
		`<path d="%s" fill="%s" fill-opacity="0.25" stroke="%s" stroke-width="2"/>`,
		pathData, stroke, stroke)
}

// hexColor converts a packed RGB value into an SVG color. Negative
// values carry an alpha byte in the sign bits and are masked off.
func hexColor(packed int32) string {
	return fmt.Sprintf("#%06x", uint32(packed)&0xFFFFFF)
}

func pathDataForGeometry(geometry orb.Geometry) string {
	switch g := geometry.(type) {
	case orb.Polygon:
		return pathDataForPolygon(g)
	case orb.MultiPolygon:
		var parts []string
		for _, polygon := range g {
			if data := pathDataForPolygon(polygon); data != "" {
				parts = append(parts, data)
			}
		}
		return strings.Join(parts, " ")
	case orb.LineString:
		return pathDataForRing(orb.Ring(g), false)
	case orb.Point:
		// draw points as small diamonds so they survive downsampling
		const r = 4.0
		return fmt.Sprintf("M %g %g L %g %g L %g %g L %g %g Z",
			g.X()-r, g.Y(), g.X(), g.Y()-r, g.X()+r, g.Y(), g.X(), g.Y()+r)
	default:
		return ""
	}
}

func pathDataForPolygon(polygon orb.Polygon) string {
	var parts []string
	for _, ring := range polygon {
		if data := pathDataForRing(ring, true); data != "" {
			parts = append(parts, data)
		}
	}
	return strings.Join(parts, " ")
}

func pathDataForRing(ring orb.Ring, closed bool) string {
	if len(ring) == 0 {
		return ""
	}
	var builder strings.Builder
	for i, point := range ring {
		if i == 0 {
			fmt.Fprintf(&builder, "M %g %g", point.X(), point.Y())
		} else {
			fmt.Fprintf(&builder, " L %g %g", point.X(), point.Y())
		}
	}
	if closed {
		builder.WriteString(" Z")
	}
	return builder.String()
}
