// Package hierarchy implements the annotation object model of a pathology
// image: annotations, detections and tiles attached to a single hierarchy,
// plus GeoJSON interchange for the geometry.
package hierarchy

import (
	"errors"
	"sync"

	"github.com/paulmach/orb"
)

var ErrWrongObjectType = errors.New("object type does not match this set")

// Hierarchy holds all path objects of one image. The zero value is not
// usable; create instances with New.
type Hierarchy struct {
	mu      sync.RWMutex
	root    *PathObject
	objects []*PathObject
}

// New returns an empty hierarchy with an auto-populated root object.
func New() *Hierarchy {
	return &Hierarchy{
		root: &PathObject{objectType: typeRoot},
	}
}

// Root returns the hierarchy's root object. The root is always present and
// is not counted by Len.
func (h *Hierarchy) Root() *PathObject {
	return h.root
}

// Len returns the total number of path objects in the hierarchy.
func (h *Hierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.objects)
}

// IsEmpty reports whether the hierarchy contains no path objects.
func (h *Hierarchy) IsEmpty() bool {
	return h.Len() == 0
}

// Annotations returns a live set view of the annotation objects.
func (h *Hierarchy) Annotations() *ObjectSet {
	return &ObjectSet{
		hierarchy: h,
		match:     (*PathObject).IsAnnotation,
		accepts:   []ObjectType{TypeAnnotation},
	}
}

// Detections returns a live set view of the detection objects, including
// tiles.
func (h *Hierarchy) Detections() *ObjectSet {
	return &ObjectSet{
		hierarchy: h,
		match:     (*PathObject).IsDetection,
		accepts:   []ObjectType{TypeDetection, TypeTile},
	}
}

// AddAnnotation creates an annotation from the given region of interest and
// attaches it to the hierarchy.
func (h *Hierarchy) AddAnnotation(roi orb.Geometry) *PathObject {
	o := NewAnnotation(roi)
	h.attach(o)
	return o
}

// AddDetection creates a detection from the given region of interest and
// attaches it to the hierarchy.
func (h *Hierarchy) AddDetection(roi orb.Geometry) *PathObject {
	o := NewDetection(roi)
	h.attach(o)
	return o
}

// AddTile creates a tile from the given region of interest and attaches it
// to the hierarchy.
func (h *Hierarchy) AddTile(roi orb.Geometry) *PathObject {
	o := NewTile(roi)
	h.attach(o)
	return o
}

// AddObjects attaches the given objects to the hierarchy, skipping any
// that are already attached.
func (h *Hierarchy) AddObjects(objects []*PathObject) {
	for _, o := range objects {
		h.attach(o)
	}
}

// Objects returns all path objects in insertion order.
func (h *Hierarchy) Objects() []*PathObject {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*PathObject, len(h.objects))
	copy(out, h.objects)
	return out
}

func (h *Hierarchy) attach(o *PathObject) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.objects {
		if existing == o {
			return
		}
	}
	h.objects = append(h.objects, o)
}

func (h *Hierarchy) detach(o *PathObject) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.objects {
		if existing == o {
			h.objects = append(h.objects[:i], h.objects[i+1:]...)
			return true
		}
	}
	return false
}

func (h *Hierarchy) contains(o *PathObject) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, existing := range h.objects {
		if existing == o {
			return true
		}
	}
	return false
}

// ObjectSet is a live, set-like view of one kind of path object in a
// hierarchy. Object identity is pointer identity.
type ObjectSet struct {
	hierarchy *Hierarchy
	match     func(*PathObject) bool
	accepts   []ObjectType
}

// Add attaches the object to the hierarchy. Adding an object whose type does
// not belong to this set returns ErrWrongObjectType. Adding an object that
// is already attached is a no-op.
func (s *ObjectSet) Add(o *PathObject) error {
	accepted := false
	for _, t := range s.accepts {
		if o.objectType == t {
			accepted = true
			break
		}
	}
	if !accepted {
		return ErrWrongObjectType
	}
	s.hierarchy.attach(o)
	return nil
}

// AddAll attaches all given objects to the hierarchy.
func (s *ObjectSet) AddAll(objects []*PathObject) error {
	for _, o := range objects {
		if err := s.Add(o); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether the object belongs to this set.
func (s *ObjectSet) Contains(o *PathObject) bool {
	return s.match(o) && s.hierarchy.contains(o)
}

// Discard removes the object from the hierarchy if present and reports
// whether it was removed.
func (s *ObjectSet) Discard(o *PathObject) bool {
	if !s.match(o) {
		return false
	}
	return s.hierarchy.detach(o)
}

// Clear removes every object of this set's kind from the hierarchy.
func (s *ObjectSet) Clear() {
	h := s.hierarchy
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.objects[:0]
	for _, o := range h.objects {
		if !s.match(o) {
			kept = append(kept, o)
		}
	}
	h.objects = kept
}

// Len returns the number of objects in this set.
func (s *ObjectSet) Len() int {
	h := s.hierarchy
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, o := range h.objects {
		if s.match(o) {
			n++
		}
	}
	return n
}

// Items returns the objects of this set in insertion order.
func (s *ObjectSet) Items() []*PathObject {
	h := s.hierarchy
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*PathObject
	for _, o := range h.objects {
		if s.match(o) {
			out = append(out, o)
		}
	}
	return out
}
