package hierarchy

import (
	"fmt"

	"github.com/paulmach/orb"
)

// ObjectType identifies the kind of a path object.
type ObjectType int

const (
	TypeAnnotation ObjectType = iota
	TypeDetection
	TypeTile
	typeRoot
)

// String returns the host application's name for the object type.
func (t ObjectType) String() string {
	switch t {
	case TypeAnnotation:
		return "PathAnnotationObject"
	case TypeDetection:
		return "PathDetectionObject"
	case TypeTile:
		return "PathTileObject"
	case typeRoot:
		return "PathRootObject"
	}
	return fmt.Sprintf("ObjectType(%d)", int(t))
}

// ParseObjectType converts a host object type name into an ObjectType.
func ParseObjectType(name string) (ObjectType, error) {
	switch name {
	case "PathAnnotationObject":
		return TypeAnnotation, nil
	case "PathDetectionObject":
		return TypeDetection, nil
	case "PathTileObject":
		return TypeTile, nil
	}
	return 0, fmt.Errorf("unsupported path object type %q", name)
}

// Classification assigns a named class and display color to a path object.
type Classification struct {
	Name     string
	ColorRGB int32
}

// Measurement is a single named numeric measurement on a path object.
type Measurement struct {
	Name  string
	Value float64
}

// PathObject is one geometric object in an annotation hierarchy.
type PathObject struct {
	objectType     ObjectType
	ROI            orb.Geometry
	Name           string
	Classification *Classification
	Locked         bool
	Measurements   []Measurement
}

// NewAnnotation creates an annotation object with the given region of interest.
func NewAnnotation(roi orb.Geometry) *PathObject {
	return &PathObject{objectType: TypeAnnotation, ROI: roi}
}

// NewDetection creates a detection object with the given region of interest.
func NewDetection(roi orb.Geometry) *PathObject {
	return &PathObject{objectType: TypeDetection, ROI: roi}
}

// NewTile creates a tile object with the given region of interest.
// Tiles are a specialized form of detection.
func NewTile(roi orb.Geometry) *PathObject {
	return &PathObject{objectType: TypeTile, ROI: roi}
}

// Type returns the object's kind.
func (o *PathObject) Type() ObjectType {
	return o.objectType
}

// IsAnnotation reports whether the object is an annotation.
func (o *PathObject) IsAnnotation() bool {
	return o.objectType == TypeAnnotation
}

// IsDetection reports whether the object is a detection. Tiles count as
// detections, matching the host application's type hierarchy.
func (o *PathObject) IsDetection() bool {
	return o.objectType == TypeDetection || o.objectType == TypeTile
}
