package project

import (
	"fmt"

	"github.com/jo-hoe/slideframe/internal/host"
)

// PropertiesMap presents the host-side property store of an image's data as
// a plain map with arbitrary values. Like MetadataMap it is a stateless
// pass-through.
type PropertiesMap struct {
	store host.PropertyStore
}

// NewPropertiesMap wraps a host property store.
func NewPropertiesMap(store host.PropertyStore) *PropertiesMap {
	return &PropertiesMap{store: store}
}

// Set stores a value under the given key.
func (p *PropertiesMap) Set(key string, value any) error {
	if key == "" {
		return ErrInvalidKey
	}
	return p.store.SetProperty(key, value)
}

// Get returns the value stored under the given key. A missing key is
// reported as ErrKeyNotFound.
func (p *PropertiesMap) Get(key string) (any, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	value, ok, err := p.store.Property(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q not in properties", ErrKeyNotFound, key)
	}
	return value, nil
}

// Delete removes the given key. Deleting a missing key is a no-op.
func (p *PropertiesMap) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return p.store.RemoveProperty(key)
}

// Contains reports whether the given key is present.
func (p *PropertiesMap) Contains(key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	_, ok, err := p.store.Property(key)
	return ok, err
}

// Len returns the number of stored keys.
func (p *PropertiesMap) Len() (int, error) {
	keys, err := p.store.PropertyKeys()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Keys returns all stored keys.
func (p *PropertiesMap) Keys() ([]string, error) {
	return p.store.PropertyKeys()
}

// Clear removes all entries.
func (p *PropertiesMap) Clear() error {
	return p.store.ClearProperties()
}

// Replace clears the store and sets all given key/value pairs.
func (p *PropertiesMap) Replace(values map[string]any) error {
	for key := range values {
		if key == "" {
			return ErrInvalidKey
		}
	}
	if err := p.store.ClearProperties(); err != nil {
		return err
	}
	for key, value := range values {
		if err := p.store.SetProperty(key, value); err != nil {
			return err
		}
	}
	return nil
}

// AsMap copies the store's content into a map.
func (p *PropertiesMap) AsMap() (map[string]any, error) {
	keys, err := p.store.PropertyKeys()
	if err != nil {
		return nil, err
	}
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		value, ok, err := p.store.Property(key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[key] = value
		}
	}
	return values, nil
}
