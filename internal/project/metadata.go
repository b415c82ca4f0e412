package project

import (
	"errors"
	"fmt"

	"github.com/jo-hoe/slideframe/internal/host"
)

var (
	ErrInvalidKey  = errors.New("key must not be empty")
	ErrKeyNotFound = errors.New("key not found")
)

// MetadataMap presents an entry's host-side metadata store as a plain
// string map. It holds no state of its own; every operation delegates to
// the host.
type MetadataMap struct {
	store host.MetadataStore
}

// NewMetadataMap wraps a host metadata store.
func NewMetadataMap(store host.MetadataStore) *MetadataMap {
	return &MetadataMap{store: store}
}

// Set stores a value under the given key, overwriting any previous value.
func (m *MetadataMap) Set(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return m.store.PutValue(key, value)
}

// Get returns the value stored under the given key. A missing key is
// reported as ErrKeyNotFound.
func (m *MetadataMap) Get(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	value, ok, err := m.store.Value(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q not in metadata", ErrKeyNotFound, key)
	}
	return value, nil
}

// Delete removes the given key. Deleting a missing key is a no-op.
func (m *MetadataMap) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return m.store.RemoveValue(key)
}

// Contains reports whether the given key is present.
func (m *MetadataMap) Contains(key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	_, ok, err := m.store.Value(key)
	return ok, err
}

// Len returns the number of stored keys.
func (m *MetadataMap) Len() (int, error) {
	keys, err := m.store.Keys()
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Keys returns all stored keys.
func (m *MetadataMap) Keys() ([]string, error) {
	return m.store.Keys()
}

// Clear removes all entries.
func (m *MetadataMap) Clear() error {
	return m.store.Clear()
}

// Replace clears the store and sets all given key/value pairs.
func (m *MetadataMap) Replace(values map[string]string) error {
	for key := range values {
		if key == "" {
			return ErrInvalidKey
		}
	}
	if err := m.store.Clear(); err != nil {
		return err
	}
	for key, value := range values {
		if err := m.store.PutValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

// AsMap copies the store's content into a map.
func (m *MetadataMap) AsMap() (map[string]string, error) {
	keys, err := m.store.Keys()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok, err := m.store.Value(key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[key] = value
		}
	}
	return values, nil
}
