package project

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jo-hoe/slideframe/internal/host"
)

var ErrImageExists = errors.New("image is already part of the project")

// Project wraps the host project store and manages the image entry
// wrappers. Identity of images is decided by the configured provider.
type Project struct {
	store    host.ProjectStore
	provider ImageProvider

	mu      sync.Mutex
	entries []*ImageEntry
}

// NewProject wraps a host project store. A nil provider defaults to the
// SimpleURIProvider.
func NewProject(store host.ProjectStore, provider ImageProvider) (*Project, error) {
	if provider == nil {
		provider = SimpleURIProvider{}
	}
	p := &Project{store: store, provider: provider}

	hostEntries, err := store.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to load project entries: %w", err)
	}
	for _, hostEntry := range hostEntries {
		p.entries = append(p.entries, NewImageEntry(hostEntry))
	}
	return p, nil
}

// Provider returns the project's image provider.
func (p *Project) Provider() ImageProvider {
	return p.provider
}

// Entries returns all image entries of the project.
func (p *Project) Entries() []*ImageEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := make([]*ImageEntry, len(p.entries))
	copy(entries, p.entries)
	return entries
}

// Len returns the number of image entries.
func (p *Project) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// EntryByID returns the entry with the given id, or host.ErrEntryNotFound.
func (p *Project) EntryByID(id string) (*ImageEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, entry := range p.entries {
		if entry.ID() == id {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", host.ErrEntryNotFound, id)
}

// EntryByURI returns the entry whose image id matches the given URI under
// the project's provider, or host.ErrEntryNotFound.
func (p *Project) EntryByURI(uri string) (*ImageEntry, error) {
	wanted, err := p.provider.ID(uri)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, entry := range p.entries {
		entryURI, err := entry.URI()
		if err != nil {
			if errors.Is(err, ErrNoServerURI) {
				continue
			}
			return nil, err
		}
		id, err := p.provider.ID(entryURI)
		if err != nil {
			continue
		}
		if id == wanted {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%w: uri %s", host.ErrEntryNotFound, uri)
}

// AddImage creates a new image entry for the given URI. Adding a URI that
// is already part of the project returns ErrImageExists.
func (p *Project) AddImage(uri, name string, pixels *host.PixelInfo) (*ImageEntry, error) {
	if _, err := p.EntryByURI(uri); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrImageExists, uri)
	} else if !errors.Is(err, host.ErrEntryNotFound) {
		return nil, err
	}

	if name == "" {
		filename, err := FilenameFromURI(uri)
		if err == nil {
			name = filename
		} else {
			name = uri
		}
	}

	hostEntry, err := p.store.AddEntry(uri, name, pixels)
	if err != nil {
		return nil, fmt.Errorf("failed to add image %s: %w", uri, err)
	}
	entry := NewImageEntry(hostEntry)

	p.mu.Lock()
	p.entries = append(p.entries, entry)
	p.mu.Unlock()
	return entry, nil
}

// RemoveEntry removes the entry with the given id from the project.
func (p *Project) RemoveEntry(id string) error {
	if err := p.store.RemoveEntry(id); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, entry := range p.entries {
		if entry.ID() == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	return nil
}

// UpdateURIs rebases the entry URIs through the given uri-to-uri mapping
// using the project's provider and returns the number of entries updated.
func (p *Project) UpdateURIs(mapping map[string]string) (int, error) {
	entries := p.Entries()
	uris := make([]string, len(entries))
	for i, entry := range entries {
		uri, err := entry.URI()
		if err != nil {
			return 0, err
		}
		uris[i] = uri
	}

	rebased, err := p.provider.Rebase(uris, mapping)
	if err != nil {
		return 0, err
	}
	if len(rebased) != len(entries) {
		return 0, fmt.Errorf("provider returned %d rebased uris for %d entries", len(rebased), len(entries))
	}

	updated := 0
	for i, newURI := range rebased {
		if newURI == "" {
			continue
		}
		equal, err := EqualURIs(uris[i], newURI)
		if err == nil && equal {
			continue
		}
		if err := entries[i].setURI(newURI); err != nil {
			return updated, fmt.Errorf("failed to update uri of entry %s: %w", entries[i].ID(), err)
		}
		updated++
	}
	return updated, nil
}
