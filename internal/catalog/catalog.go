// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

// catalog.go - Static catalog of known NetBox API endpoints.
//
// The catalog is a list of {"URL": "/api/dcim/devices/", "Name": "Devices"}
// entries loaded from a local file. JSON (comments and trailing commas
// allowed) and YAML sources are accepted; the format is chosen by extension.
//
// Usage Example:
//   store, err := catalog.NewStore("netbox_apis.json")
//   descriptors, err := store.Descriptors()
//   ...
//   err = store.Reload() // atomic swap, concurrent readers never see a partial set

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/gebl/netbox-assistant/internal/logging"
)

// EndpointDescriptor identifies one known API endpoint.
// Path is the natural key; Name is advisory and may be empty or repeated.
type EndpointDescriptor struct {
	Path string `json:"URL" yaml:"URL"`
	Name string `json:"Name" yaml:"Name"`
}

// LoadError reports an absent or malformed catalog source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load endpoint catalog %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrNotFound is wrapped by LoadError when the catalog file does not exist.
var ErrNotFound = errors.New("catalog file not found")

type rawEntry struct {
	URL  *string `json:"URL" yaml:"URL"`
	Name string  `json:"Name" yaml:"Name"`
}

// Load reads the catalog at path. It performs no network access and has no
// side effects beyond reading the file.
func Load(path string) ([]EndpointDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Source: path, Err: ErrNotFound}
		}
		return nil, &LoadError{Source: path, Err: err}
	}

	descriptors, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	logging.CatalogLogger.Debug("Catalog loaded", "path", path, "count", len(descriptors))
	return descriptors, nil
}

// Format selects the catalog encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes catalog entries. Every entry must carry a non-empty URL.
func Parse(data []byte, format Format) ([]EndpointDescriptor, error) {
	var entries []rawEntry
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if entries == nil {
		return nil, errors.New("catalog must be a list of endpoint entries")
	}

	descriptors := make([]EndpointDescriptor, 0, len(entries))
	for i, entry := range entries {
		if entry.URL == nil || strings.TrimSpace(*entry.URL) == "" {
			return nil, fmt.Errorf("entry %d is missing required field URL", i)
		}
		descriptors = append(descriptors, EndpointDescriptor{
			Path: strings.TrimSpace(*entry.URL),
			Name: strings.TrimSpace(entry.Name),
		})
	}
	return descriptors, nil
}

// snapshot is one immutable loaded catalog, or the error that prevented loading.
type snapshot struct {
	descriptors []EndpointDescriptor
	err         error
}

// Store holds the current catalog behind an atomic pointer. Readers get a
// complete snapshot; Reload replaces it in one swap.
type Store struct {
	path    string
	current atomic.Pointer[snapshot]
}

// NewStore loads the catalog at path. A load failure is kept in the store
// rather than returned as fatal: discovery is optional per turn, so the
// operations that need the catalog report it when they run.
func NewStore(path string) *Store {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		logging.CatalogLogger.Warn("Endpoint catalog unavailable", "path", path, "error", err)
	}
	return s
}

// NewStaticStore wraps an in-memory catalog. Reload keeps it unchanged.
func NewStaticStore(descriptors []EndpointDescriptor) *Store {
	s := &Store{}
	s.current.Store(&snapshot{descriptors: clone(descriptors)})
	return s
}

// Path returns the catalog source path, empty for static stores.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the source and swaps it in. On failure the error replaces
// the previous snapshot so callers see CatalogUnavailable instead of stale data.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	descriptors, err := Load(s.path)
	s.current.Store(&snapshot{descriptors: descriptors, err: err})
	if err == nil {
		logging.CatalogLogger.Info("Endpoint catalog loaded", "path", s.path, "endpoints", len(descriptors))
	}
	return err
}

// Descriptors returns the current catalog or the load error.
// The returned slice is shared and must not be modified.
func (s *Store) Descriptors() ([]EndpointDescriptor, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, &LoadError{Source: s.path, Err: errors.New("catalog not loaded")}
	}
	if snap.err != nil {
		return nil, snap.err
	}
	return snap.descriptors, nil
}

func clone(in []EndpointDescriptor) []EndpointDescriptor {
	out := make([]EndpointDescriptor, len(in))
	copy(out, in)
	return out
}
