package project

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jo-hoe/slideframe/internal/hierarchy"
	"github.com/jo-hoe/slideframe/internal/host"
)

// ImageEntry wraps a host project entry and exposes its metadata,
// properties and derived pixel information. Image data is opened lazily on
// first use and cached for the lifetime of the wrapper.
type ImageEntry struct {
	entry    host.ProjectEntry
	metadata *MetadataMap

	dataOnce sync.Once
	data     host.ImageData
	dataErr  error

	serverOnce sync.Once
	server     host.ImageServer
	serverErr  error

	levelsOnce sync.Once
	levels     []host.PixelLevel
	levelsErr  error
}

// NewImageEntry wraps a host project entry. Entries are normally obtained
// through Project rather than constructed directly.
func NewImageEntry(entry host.ProjectEntry) *ImageEntry {
	return &ImageEntry{
		entry:    entry,
		metadata: NewMetadataMap(entry.Metadata()),
	}
}

// ID returns the unique image entry id.
func (e *ImageEntry) ID() string {
	return e.entry.ID()
}

// EntryPath returns the path to the entry's data directory.
func (e *ImageEntry) EntryPath() string {
	return e.entry.EntryPath()
}

// ImageName returns the image entry name.
func (e *ImageEntry) ImageName() (string, error) {
	return e.entry.ImageName()
}

// SetImageName renames the image entry.
func (e *ImageEntry) SetImageName(name string) error {
	return e.entry.SetImageName(name)
}

// Description returns the free text describing the image.
func (e *ImageEntry) Description() (string, error) {
	return e.entry.Description()
}

// SetDescription updates the free text describing the image.
func (e *ImageEntry) SetDescription(description string) error {
	return e.entry.SetDescription(description)
}

// URI returns the image entry's server URI. Entries without a URI or with
// more than one URI are reported as errors.
func (e *ImageEntry) URI() (string, error) {
	uris, err := e.entry.ServerURIs()
	if err != nil {
		return "", err
	}
	switch len(uris) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoServerURI, e.ID())
	case 1:
		return uris[0], nil
	default:
		return "", fmt.Errorf("%w: %s has %d", ErrMultipleURIs, e.ID(), len(uris))
	}
}

// Metadata returns the metadata stored on the entry as a map-style proxy.
func (e *ImageEntry) Metadata() *MetadataMap {
	return e.metadata
}

func (e *ImageEntry) imageData() (host.ImageData, error) {
	e.dataOnce.Do(func() {
		e.data, e.dataErr = e.entry.ReadImageData()
	})
	return e.data, e.dataErr
}

// Properties returns the properties stored in the image data as a
// map-style proxy.
func (e *ImageEntry) Properties() (*PropertiesMap, error) {
	data, err := e.imageData()
	if err != nil {
		return nil, err
	}
	return NewPropertiesMap(data.Properties()), nil
}

// ImageType returns the entry's image type.
func (e *ImageEntry) ImageType() (ImageType, error) {
	data, err := e.imageData()
	if err != nil {
		return "", err
	}
	return ParseImageType(data.ImageType())
}

// SetImageType updates the entry's image type.
func (e *ImageEntry) SetImageType(imageType ImageType) error {
	if !imageType.IsValid() {
		return fmt.Errorf("unsupported image type %q", imageType)
	}
	data, err := e.imageData()
	if err != nil {
		return err
	}
	data.SetImageType(string(imageType))
	return nil
}

// Hierarchy returns the entry's annotation hierarchy.
func (e *ImageEntry) Hierarchy() (*hierarchy.Hierarchy, error) {
	data, err := e.imageData()
	if err != nil {
		return nil, err
	}
	return data.Hierarchy(), nil
}

func (e *ImageEntry) imageServer() (host.ImageServer, error) {
	e.serverOnce.Do(func() {
		data, err := e.imageData()
		if err != nil {
			e.serverErr = err
			return
		}
		e.server, e.serverErr = data.Server()
	})
	return e.server, e.serverErr
}

// Width returns the full resolution image width in pixels.
func (e *ImageEntry) Width() (int, error) {
	server, err := e.imageServer()
	if err != nil {
		return 0, err
	}
	return server.Width(), nil
}

// Height returns the full resolution image height in pixels.
func (e *ImageEntry) Height() (int, error) {
	server, err := e.imageServer()
	if err != nil {
		return 0, err
	}
	return server.Height(), nil
}

// NumChannels returns the number of image channels.
func (e *ImageEntry) NumChannels() (int, error) {
	server, err := e.imageServer()
	if err != nil {
		return 0, err
	}
	return server.NumChannels(), nil
}

// NumZSlices returns the number of z slices.
func (e *ImageEntry) NumZSlices() (int, error) {
	server, err := e.imageServer()
	if err != nil {
		return 0, err
	}
	return server.NumZSlices(), nil
}

// NumTimepoints returns the number of timepoints.
func (e *ImageEntry) NumTimepoints() (int, error) {
	server, err := e.imageServer()
	if err != nil {
		return 0, err
	}
	return server.NumTimepoints(), nil
}

// DownsampleLevels returns the pyramid levels of the image, computed once
// per wrapper.
func (e *ImageEntry) DownsampleLevels() ([]host.PixelLevel, error) {
	e.levelsOnce.Do(func() {
		server, err := e.imageServer()
		if err != nil {
			e.levelsErr = err
			return
		}
		e.levels = server.Levels()
	})
	return e.levels, e.levelsErr
}

// PixelInfo bundles the entry's derived pixel properties.
func (e *ImageEntry) PixelInfo() (*host.PixelInfo, error) {
	server, err := e.imageServer()
	if err != nil {
		return nil, err
	}
	levels, err := e.DownsampleLevels()
	if err != nil {
		return nil, err
	}
	return &host.PixelInfo{
		Width:         server.Width(),
		Height:        server.Height(),
		NumChannels:   server.NumChannels(),
		NumZSlices:    server.NumZSlices(),
		NumTimepoints: server.NumTimepoints(),
		Levels:        levels,
	}, nil
}

// IsReadable reports whether the entry's image file exists locally.
// Entries pointing at non-file URIs are never locally readable.
func (e *ImageEntry) IsReadable() (bool, error) {
	uri, err := e.URI()
	if err != nil {
		return false, err
	}
	filePath, err := PathFromURI(uri)
	if err != nil {
		if errors.Is(err, ErrUnsupportedScheme) {
			return false, nil
		}
		return false, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// IsChanged reports whether the entry's image data has unsaved changes.
func (e *ImageEntry) IsChanged() (bool, error) {
	data, err := e.imageData()
	if err != nil {
		return false, err
	}
	return data.IsChanged(), nil
}

// Save persists the entry's image data when the image is readable and has
// unsaved changes; otherwise it is a no-op.
func (e *ImageEntry) Save() error {
	readable, err := e.IsReadable()
	if err != nil {
		return err
	}
	changed, err := e.IsChanged()
	if err != nil {
		return err
	}
	if !readable || !changed {
		return nil
	}
	data, err := e.imageData()
	if err != nil {
		return err
	}
	return data.Save()
}

// setURI points the entry at a new server URI; used by Project during
// rebasing.
func (e *ImageEntry) setURI(uri string) error {
	return e.entry.SetServerURI(uri)
}
