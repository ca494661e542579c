// Package file implements the violation store as a single JSON document on
// disk, mirroring the schema the browser build kept in localStorage. Reads
// of the legacy bare-array form still work; writes always produce the
// versioned envelope.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	domain "github.com/bryanwahyu/placard-watch/internal/domain/verdict"
)

const schemaVersion = 1

// envelope is the persisted form. A file that decodes as a bare array is
// treated as version 0.
type envelope struct {
	Version    int              `json:"version"`
	Violations []*domain.Record `json:"violations"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		path = "./data/violations.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Commit front-inserts the record. Duplicate ids are rejected, never
// overwritten. The write is atomic: a temp file is fully written, then
// renamed over the old document.
func (s *Store) Commit(_ context.Context, r *domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	for _, existing := range records {
		if existing.ID == r.ID {
			return domain.ErrDuplicateID
		}
	}

	rec := *r
	records = append([]*domain.Record{&rec}, records...)
	return s.write(records)
}

// List returns committed records most-recent-first. It never fails: an
// absent or corrupt backing file reads as empty.
func (s *Store) List(_ context.Context) ([]*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *Store) Get(_ context.Context, id domain.RecordID) (*domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.load() {
		if r.ID == id {
			rec := *r
			return &rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

// load reads the backing document. Corruption degrades to an empty list;
// callers must never crash on a bad file. Caller holds s.mu.
func (s *Store) load() []*domain.Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		// Version 0: the bare array written before the envelope existed.
		var records []*domain.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil
		}
		return records
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	return env.Violations
}

// write replaces the document atomically. Caller holds s.mu.
func (s *Store) write(records []*domain.Record) error {
	env := envelope{Version: schemaVersion, Violations: records}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".violations-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}
	return nil
}

var _ domain.Repository = (*Store)(nil)
