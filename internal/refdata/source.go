package refdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// LoadError describes a reference document that exists but could not be
// used. The table keeps serving its previous good contents.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// source is an operator-editable JSON document cached by modification time.
//
// Every query calls get(), which costs one stat on the unchanged path.
// A changed document is parsed into a fresh value that replaces the old one
// under the lock; values are never mutated after parse, so callers may keep
// using whatever get() returned.
type source[T any] struct {
	path   string
	schema *jsonschema.Schema
	parse  func(doc any) (T, error)
	log    *slog.Logger

	mu      sync.Mutex
	value   T
	good    bool
	statted bool
	modTime time.Time
	size    int64
	lastErr error
}

func newSource[T any](path string, schema *jsonschema.Schema, parse func(any) (T, error)) *source[T] {
	return &source[T]{
		path:   path,
		schema: schema,
		parse:  parse,
		log:    slog.With("component", "refdata", "path", path),
	}
}

func (s *source[T]) get() T {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("stat reference document", "error", err)
		}
		if s.good {
			s.log.Info("reference document removed; table is empty")
		}
		var zero T
		s.value = zero
		s.good = false
		s.statted = false
		s.lastErr = nil
		return s.value
	}

	if s.statted && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.value
	}

	// Remember the stat even on failure so a broken document is parsed once
	// per edit, not once per query.
	s.statted = true
	s.modTime = info.ModTime()
	s.size = info.Size()

	v, err := s.load()
	if err != nil {
		s.lastErr = &LoadError{Path: s.path, Err: err}
		s.log.Warn("reference document rejected; keeping previous contents", "error", err, "had_previous", s.good)
		return s.value
	}

	s.value = v
	s.good = true
	s.lastErr = nil
	s.log.Debug("reference document loaded")
	return s.value
}

func (s *source[T]) load() (T, error) {
	var zero T

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return zero, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return zero, fmt.Errorf("parse json: %w", err)
	}

	if s.schema != nil {
		if err := s.schema.Validate(doc); err != nil {
			return zero, fmt.Errorf("schema: %w", err)
		}
	}

	return s.parse(doc)
}

// status reports whether a good document is loaded and the last load error.
func (s *source[T]) status() (bool, error) {
	s.get()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.good, s.lastErr
}
