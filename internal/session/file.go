package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/topic"
)

// FileStore keeps the session as a single JSON document.
type FileStore struct {
	path    string
	catalog *topic.Catalog
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string, c *topic.Catalog) *FileStore {
	return &FileStore{path: path, catalog: c}
}

// Path returns the record location.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes the full record, replacing any previous one. The file is
// written beside the target and renamed so a crash never leaves a partial
// record.
func (f *FileStore) Save(_ context.Context, s *interview.Session) error {
	data, err := json.MarshalIndent(ToRecord(s, f.catalog), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}

// Load reads the record from disk.
// Returns nil, nil if no record exists (not an error).
func (f *FileStore) Load(_ context.Context) (*interview.Session, error) {
	rec, err := f.ReadRecord()
	if err != nil || rec == nil {
		return nil, err
	}
	return FromRecord(*rec, f.catalog)
}

// ReadRecord returns the raw persisted record, or nil, nil if none exists.
func (f *FileStore) ReadRecord() (*Record, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", f.path, err)
	}
	return &rec, nil
}

// Reset removes the record file.
func (f *FileStore) Reset(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}
