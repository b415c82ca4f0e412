package host

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jo-hoe/slideframe/internal/hierarchy"

	_ "modernc.org/sqlite"
)

// unsetImageType is the stored type of an image that has not been typed yet.
const unsetImageType = "Not set"

// SQLiteStore is a project store backed by a sqlite database. Entry
// metadata writes through immediately; image data (properties, image type)
// is held in memory per entry and persisted on Save. Hierarchies are never
// persisted here.
type SQLiteStore struct {
	db      *sql.DB
	dataDir string

	mu   sync.Mutex
	open map[string]*sqliteImageData
}

// NewSQLiteStore opens (and if needed creates) a sqlite-backed project
// store. dataDir is the directory entry paths are derived from and may be
// empty for purely in-memory use.
func NewSQLiteStore(connectionString, dataDir string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps :memory: databases from fragmenting
	// across the pool
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:      db,
		dataDir: dataDir,
		open:    make(map[string]*sqliteImageData),
	}
	if err := store.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			uri TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_type TEXT NOT NULL DEFAULT 'Not set'
		)`,
		`CREATE TABLE IF NOT EXISTS entry_metadata (
			entry_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (entry_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS entry_properties (
			entry_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (entry_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS entry_pixels (
			entry_id TEXT PRIMARY KEY,
			info TEXT NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) AddEntry(uri, name string, pixels *PixelInfo) (ProjectEntry, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO entries (id, uri, name, image_type) VALUES (?, ?, ?, ?)",
		id, uri, name, unsetImageType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	if pixels != nil {
		info, err := json.Marshal(pixels)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize pixel info: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO entry_pixels (entry_id, info) VALUES (?, ?)", id, info); err != nil {
			return nil, fmt.Errorf("failed to insert pixel info: %w", err)
		}
	}
	return &sqliteEntry{store: s, id: id}, nil
}

func (s *SQLiteStore) Entries() ([]ProjectEntry, error) {
	rows, err := s.db.Query("SELECT id FROM entries ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []ProjectEntry
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		entries = append(entries, &sqliteEntry{store: s, id: id})
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) EntryByID(id string) (ProjectEntry, error) {
	row := s.db.QueryRow("SELECT id FROM entries WHERE id = ?", id)
	var found string
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		return nil, err
	}
	return &sqliteEntry{store: s, id: found}, nil
}

func (s *SQLiteStore) RemoveEntry(id string) error {
	result, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	for _, table := range []string{"entry_metadata", "entry_properties", "entry_pixels"} {
		if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE entry_id = ?", table), id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type sqliteEntry struct {
	store *SQLiteStore
	id    string
}

func (e *sqliteEntry) ID() string {
	return e.id
}

func (e *sqliteEntry) EntryPath() string {
	if e.store.dataDir == "" {
		return ""
	}
	return filepath.Join(e.store.dataDir, e.id)
}

func (e *sqliteEntry) stringColumn(column string) (string, error) {
	// column names are fixed by the callers, never user input
	row := e.store.db.QueryRow(fmt.Sprintf("SELECT %s FROM entries WHERE id = ?", column), e.id)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrEntryNotFound, e.id)
		}
		return "", err
	}
	return value, nil
}

func (e *sqliteEntry) setStringColumn(column, value string) error {
	result, err := e.store.db.Exec(fmt.Sprintf("UPDATE entries SET %s = ? WHERE id = ?", column), value, e.id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, e.id)
	}
	return nil
}

func (e *sqliteEntry) ImageName() (string, error) {
	return e.stringColumn("name")
}

func (e *sqliteEntry) SetImageName(name string) error {
	return e.setStringColumn("name", name)
}

func (e *sqliteEntry) Description() (string, error) {
	return e.stringColumn("description")
}

func (e *sqliteEntry) SetDescription(description string) error {
	return e.setStringColumn("description", description)
}

func (e *sqliteEntry) ServerURIs() ([]string, error) {
	uri, err := e.stringColumn("uri")
	if err != nil {
		return nil, err
	}
	if uri == "" {
		return nil, nil
	}
	return []string{uri}, nil
}

func (e *sqliteEntry) SetServerURI(uri string) error {
	return e.setStringColumn("uri", uri)
}

func (e *sqliteEntry) Metadata() MetadataStore {
	return &sqliteMetadata{store: e.store, entryID: e.id}
}

// ReadImageData returns the shared image data object of this entry,
// loading it from the database on first access.
func (e *sqliteEntry) ReadImageData() (ImageData, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if data, ok := e.store.open[e.id]; ok {
		return data, nil
	}

	imageType, err := e.stringColumn("image_type")
	if err != nil {
		return nil, err
	}

	properties := make(map[string]any)
	rows, err := e.store.db.Query("SELECT key, value FROM entry_properties WHERE entry_id = ?", e.id)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("failed to decode property %q: %w", key, err)
		}
		properties[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pixels *PixelInfo
	pixelRow := e.store.db.QueryRow("SELECT info FROM entry_pixels WHERE entry_id = ?", e.id)
	var rawInfo string
	switch err := pixelRow.Scan(&rawInfo); {
	case err == nil:
		pixels = &PixelInfo{}
		if err := json.Unmarshal([]byte(rawInfo), pixels); err != nil {
			return nil, fmt.Errorf("failed to decode pixel info: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// entry without pixel information, Server() will fail
	default:
		return nil, err
	}

	data := &sqliteImageData{
		store:      e.store,
		entryID:    e.id,
		imageType:  imageType,
		properties: properties,
		pixels:     pixels,
		hier:       hierarchy.New(),
	}
	e.store.open[e.id] = data
	return data, nil
}

type sqliteMetadata struct {
	store   *SQLiteStore
	entryID string
}

func (m *sqliteMetadata) PutValue(key, value string) error {
	_, err := m.store.db.Exec(
		`INSERT INTO entry_metadata (entry_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (entry_id, key) DO UPDATE SET value = excluded.value`,
		m.entryID, key, value,
	)
	return err
}

func (m *sqliteMetadata) Value(key string) (string, bool, error) {
	row := m.store.db.QueryRow(
		"SELECT value FROM entry_metadata WHERE entry_id = ? AND key = ?",
		m.entryID, key,
	)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (m *sqliteMetadata) RemoveValue(key string) error {
	_, err := m.store.db.Exec(
		"DELETE FROM entry_metadata WHERE entry_id = ? AND key = ?",
		m.entryID, key,
	)
	return err
}

func (m *sqliteMetadata) Keys() ([]string, error) {
	rows, err := m.store.db.Query(
		"SELECT key FROM entry_metadata WHERE entry_id = ? ORDER BY key",
		m.entryID,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (m *sqliteMetadata) Clear() error {
	_, err := m.store.db.Exec("DELETE FROM entry_metadata WHERE entry_id = ?", m.entryID)
	return err
}

type sqliteImageData struct {
	store   *SQLiteStore
	entryID string

	mu         sync.Mutex
	imageType  string
	properties map[string]any
	pixels     *PixelInfo
	hier       *hierarchy.Hierarchy
	changed    bool
}

func (d *sqliteImageData) Server() (ImageServer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pixels == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoServer, d.entryID)
	}
	return NewPixelServer(d.pixels), nil
}

func (d *sqliteImageData) Properties() PropertyStore {
	return &memoryProperties{data: d}
}

func (d *sqliteImageData) ImageType() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.imageType
}

func (d *sqliteImageData) SetImageType(imageType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.imageType == imageType {
		return
	}
	d.imageType = imageType
	d.changed = true
}

func (d *sqliteImageData) Hierarchy() *hierarchy.Hierarchy {
	return d.hier
}

func (d *sqliteImageData) IsChanged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changed
}

// Save persists image type and properties. Hierarchy geometry is owned by
// the host application and stays in memory.
func (d *sqliteImageData) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.store.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("UPDATE entries SET image_type = ? WHERE id = ?", d.imageType, d.entryID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM entry_properties WHERE entry_id = ?", d.entryID); err != nil {
		return err
	}
	for key, value := range d.properties {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode property %q: %w", key, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO entry_properties (entry_id, key, value) VALUES (?, ?, ?)",
			d.entryID, key, string(raw),
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	d.changed = false
	return nil
}

// memoryProperties exposes the in-memory property map of an open image data
// object as a PropertyStore.
type memoryProperties struct {
	data *sqliteImageData
}

func (p *memoryProperties) SetProperty(key string, value any) error {
	p.data.mu.Lock()
	defer p.data.mu.Unlock()
	p.data.properties[key] = value
	p.data.changed = true
	return nil
}

func (p *memoryProperties) Property(key string) (any, bool, error) {
	p.data.mu.Lock()
	defer p.data.mu.Unlock()
	value, ok := p.data.properties[key]
	return value, ok, nil
}

func (p *memoryProperties) RemoveProperty(key string) error {
	p.data.mu.Lock()
	defer p.data.mu.Unlock()
	if _, ok := p.data.properties[key]; ok {
		delete(p.data.properties, key)
		p.data.changed = true
	}
	return nil
}

func (p *memoryProperties) PropertyKeys() ([]string, error) {
	p.data.mu.Lock()
	defer p.data.mu.Unlock()
	keys := make([]string, 0, len(p.data.properties))
	for key := range p.data.properties {
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *memoryProperties) ClearProperties() error {
	p.data.mu.Lock()
	defer p.data.mu.Unlock()
	if len(p.data.properties) > 0 {
		p.data.properties = make(map[string]any)
		p.data.changed = true
	}
	return nil
}
