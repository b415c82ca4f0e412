// Package host defines the contracts of the image-management application
// whose object model the project wrappers expose, together with a concrete
// sqlite-backed implementation used by the service.
//
// Pixel data, image-server metadata recovery and hierarchy persistence stay
// owned by the application; the interfaces here only consume them.
package host

import (
	"errors"

	"github.com/jo-hoe/slideframe/internal/hierarchy"
)

var (
	ErrEntryNotFound = errors.New("image entry not found")
	ErrNoServer      = errors.New("no image server available for entry")
)

// PixelLevel describes one resolution level of an image pyramid.
type PixelLevel struct {
	Downsample float64 `json:"downsample"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// PixelInfo bundles the size metadata an image server reports.
type PixelInfo struct {
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	NumChannels   int          `json:"numChannels"`
	NumZSlices    int          `json:"numZSlices"`
	NumTimepoints int          `json:"numTimepoints"`
	Levels        []PixelLevel `json:"levels"`
}

// ImageServer exposes the pixel dimensions of an opened image.
type ImageServer interface {
	Width() int
	Height() int
	NumChannels() int
	NumZSlices() int
	NumTimepoints() int
	Levels() []PixelLevel
}

// MetadataStore is the string key/value store an entry keeps per image.
type MetadataStore interface {
	PutValue(key, value string) error
	Value(key string) (string, bool, error)
	RemoveValue(key string) error
	Keys() ([]string, error)
	Clear() error
}

// PropertyStore holds arbitrary values attached to image data.
type PropertyStore interface {
	SetProperty(key string, value any) error
	Property(key string) (any, bool, error)
	RemoveProperty(key string) error
	PropertyKeys() ([]string, error)
	ClearProperties() error
}

// ImageData is the mutable per-image state owned by the application. All
// consumers of one entry observe the same image data instance.
type ImageData interface {
	// Server returns the image server for this image, or ErrNoServer when
	// the application has no pixel information for it.
	Server() (ImageServer, error)
	Properties() PropertyStore
	ImageType() string
	SetImageType(imageType string)
	Hierarchy() *hierarchy.Hierarchy
	IsChanged() bool
	Save() error
}

// ProjectEntry is a single image entry of a project.
type ProjectEntry interface {
	ID() string
	EntryPath() string
	ImageName() (string, error)
	SetImageName(name string) error
	Description() (string, error)
	SetDescription(description string) error
	ServerURIs() ([]string, error)
	SetServerURI(uri string) error
	Metadata() MetadataStore
	ReadImageData() (ImageData, error)
}

// ProjectStore is the application-side container of image entries.
type ProjectStore interface {
	AddEntry(uri, name string, pixels *PixelInfo) (ProjectEntry, error)
	Entries() ([]ProjectEntry, error)
	EntryByID(id string) (ProjectEntry, error)
	RemoveEntry(id string) error
	Close() error
}
