package hierarchy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON exports all path objects as a GeoJSON feature collection. The
// feature id carries the object type name, the properties carry
// classification, lock state and measurements.
func (h *Hierarchy) ToGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range h.Objects() {
		fc.Append(featureFromObject(o))
	}
	return fc
}

// ToGeoJSONBytes exports the hierarchy as serialized GeoJSON.
func (h *Hierarchy) ToGeoJSONBytes() ([]byte, error) {
	data, err := json.Marshal(h.ToGeoJSON())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize hierarchy to geojson: %w", err)
	}
	return data, nil
}

// LoadGeoJSON attaches every feature of the collection to the hierarchy and
// returns the number of objects added. A collection with any invalid
// feature leaves the hierarchy untouched.
func (h *Hierarchy) LoadGeoJSON(fc *geojson.FeatureCollection) (int, error) {
	objects, err := ObjectsFromGeoJSON(fc)
	if err != nil {
		return 0, err
	}
	h.AddObjects(objects)
	return len(objects), nil
}

// LoadGeoJSONBytes parses serialized GeoJSON and attaches the contained
// features. Both a feature collection object and a bare feature array are
// accepted; any other payload is rejected without modifying the hierarchy.
func (h *Hierarchy) LoadGeoJSONBytes(data []byte) (int, error) {
	objects, err := ObjectsFromGeoJSONBytes(data)
	if err != nil {
		return 0, err
	}
	h.AddObjects(objects)
	return len(objects), nil
}

// ObjectsFromGeoJSON converts a feature collection into path objects
// without attaching them anywhere. Any invalid feature fails the whole
// conversion.
func ObjectsFromGeoJSON(fc *geojson.FeatureCollection) ([]*PathObject, error) {
	if fc == nil {
		return nil, fmt.Errorf("geojson feature collection must not be nil")
	}
	objects := make([]*PathObject, 0, len(fc.Features))
	for i, f := range fc.Features {
		o, err := objectFromFeature(f)
		if err != nil {
			return nil, fmt.Errorf("invalid feature at index %d: %w", i, err)
		}
		objects = append(objects, o)
	}
	return objects, nil
}

// ObjectsFromGeoJSONBytes parses serialized GeoJSON into path objects.
// Both a feature collection object and a bare feature array are accepted.
func ObjectsFromGeoJSONBytes(data []byte) ([]*PathObject, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty geojson payload")
	}
	if trimmed[0] == '[' {
		var features []*geojson.Feature
		if err := json.Unmarshal(trimmed, &features); err != nil {
			return nil, fmt.Errorf("failed to parse geojson feature array: %w", err)
		}
		return ObjectsFromGeoJSON(&geojson.FeatureCollection{Features: features})
	}
	fc, err := geojson.UnmarshalFeatureCollection(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson feature collection: %w", err)
	}
	return ObjectsFromGeoJSON(fc)
}

func featureFromObject(o *PathObject) *geojson.Feature {
	f := geojson.NewFeature(o.ROI)
	f.ID = o.objectType.String()
	f.Properties["isLocked"] = o.Locked
	measurements := make([]interface{}, 0, len(o.Measurements))
	for _, m := range o.Measurements {
		measurements = append(measurements, map[string]interface{}{
			"name":  m.Name,
			"value": m.Value,
		})
	}
	f.Properties["measurements"] = measurements
	if o.Classification != nil {
		f.Properties["classification"] = map[string]interface{}{
			"name":     o.Classification.Name,
			"colorRGB": o.Classification.ColorRGB,
		}
	}
	if o.Name != "" {
		f.Properties["name"] = o.Name
	}
	return f
}

func objectFromFeature(f *geojson.Feature) (*PathObject, error) {
	if f == nil {
		return nil, fmt.Errorf("feature must not be nil")
	}
	if f.Geometry == nil {
		return nil, fmt.Errorf("feature has no geometry")
	}

	// Features without an explicit id default to annotations.
	objectType := TypeAnnotation
	if f.ID != nil {
		name, ok := f.ID.(string)
		if !ok {
			return nil, fmt.Errorf("feature id must be a string, got %T", f.ID)
		}
		parsed, err := ParseObjectType(name)
		if err != nil {
			return nil, err
		}
		objectType = parsed
	}

	o := &PathObject{objectType: objectType, ROI: f.Geometry}
	if locked, ok := f.Properties["isLocked"].(bool); ok {
		o.Locked = locked
	}
	if name, ok := f.Properties["name"].(string); ok {
		o.Name = name
	}
	if c, ok := f.Properties["classification"].(map[string]interface{}); ok {
		classification := &Classification{}
		if name, ok := c["name"].(string); ok {
			classification.Name = name
		}
		if color, ok := toFloat64(c["colorRGB"]); ok {
			classification.ColorRGB = int32(color)
		}
		o.Classification = classification
	}
	if measurements, ok := f.Properties["measurements"].([]interface{}); ok {
		for _, raw := range measurements {
			m, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			value, _ := toFloat64(m["value"])
			o.Measurements = append(o.Measurements, Measurement{Name: name, Value: value})
		}
	}
	return o, nil
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
