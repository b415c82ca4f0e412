package project

import (
	"errors"
	"testing"

	"github.com/jo-hoe/slideframe/internal/host"
)

func newTestProject(t *testing.T) *Project {
	t.Helper()

	store, err := host.NewSQLiteStore(":memory:", "")
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	p, err := NewProject(store, nil)
	if err != nil {
		t.Fatalf("NewProject error: %v", err)
	}
	return p
}

func TestProject_AddImage(t *testing.T) {
	p := newTestProject(t)

	entry, err := p.AddImage("file:///images/slide.svs", "", nil)
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	name, err := entry.ImageName()
	if err != nil {
		t.Fatalf("ImageName error: %v", err)
	}
	if name != "slide.svs" {
		t.Errorf("expected name derived from uri, got %q", name)
	}
	if p.Len() != 1 {
		t.Errorf("expected project length 1, got %d", p.Len())
	}

	// equivalent encoding of the same path counts as the same image
	if _, err := p.AddImage("file:///images/slide.svs", "", nil); !errors.Is(err, ErrImageExists) {
		t.Errorf("expected ErrImageExists, got %v", err)
	}
}

func TestProject_Lookup(t *testing.T) {
	p := newTestProject(t)

	first, err := p.AddImage("file:///images/a,b.svs", "a", nil)
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if _, err := p.AddImage("file:///images/b.svs", "b", nil); err != nil {
		t.Fatalf("AddImage error: %v", err)
	}

	byID, err := p.EntryByID(first.ID())
	if err != nil {
		t.Fatalf("EntryByID error: %v", err)
	}
	if byID != first {
		t.Errorf("expected the same wrapper instance")
	}
	if _, err := p.EntryByID("missing"); !errors.Is(err, host.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}

	// lookup with a differently encoded but equivalent uri
	byURI, err := p.EntryByURI("file:///images/a%2Cb.svs")
	if err != nil {
		t.Fatalf("EntryByURI error: %v", err)
	}
	if byURI != first {
		t.Errorf("expected lookup by equivalent uri to find the entry")
	}
	if _, err := p.EntryByURI("file:///images/missing.svs"); !errors.Is(err, host.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestProject_RemoveEntry(t *testing.T) {
	p := newTestProject(t)

	entry, err := p.AddImage("file:///images/a.svs", "", nil)
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if err := p.RemoveEntry(entry.ID()); err != nil {
		t.Fatalf("RemoveEntry error: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("expected empty project, got %d entries", p.Len())
	}
	if err := p.RemoveEntry(entry.ID()); !errors.Is(err, host.ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestProject_UpdateURIs(t *testing.T) {
	p := newTestProject(t)

	moved, err := p.AddImage("file:///old/a.svs", "", nil)
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if _, err := p.AddImage("file:///old/b.svs", "", nil); err != nil {
		t.Fatalf("AddImage error: %v", err)
	}

	updated, err := p.UpdateURIs(map[string]string{
		"file:///old/a.svs": "file:///new/a.svs",
	})
	if err != nil {
		t.Fatalf("UpdateURIs error: %v", err)
	}
	if updated != 1 {
		t.Errorf("expected 1 updated entry, got %d", updated)
	}

	uri, err := moved.URI()
	if err != nil {
		t.Fatalf("URI error: %v", err)
	}
	if uri != "file:///new/a.svs" {
		t.Errorf("expected rebased uri, got %q", uri)
	}

	// a mapping to the identical path changes nothing
	updated, err = p.UpdateURIs(map[string]string{
		"file:///new/a.svs": "file:///new/a.svs",
	})
	if err != nil {
		t.Fatalf("UpdateURIs error: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected no updates for identity mapping, got %d", updated)
	}
}

func TestProject_LoadsExistingEntries(t *testing.T) {
	store, err := host.NewSQLiteStore(":memory:", "")
	if err != nil {
		t.Fatalf("NewSQLiteStore error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.AddEntry("file:///images/a.svs", "a", nil); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}
	if _, err := store.AddEntry("file:///images/b.svs", "b", nil); err != nil {
		t.Fatalf("AddEntry error: %v", err)
	}

	p, err := NewProject(store, SimpleURIProvider{})
	if err != nil {
		t.Fatalf("NewProject error: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 entries to be loaded, got %d", p.Len())
	}
}
