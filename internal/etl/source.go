package etl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"catalog/internal/domain"
)

// ── Source ──────────────────────────────────────────────────
// A Source reads a delimited catalog file into raw rows.
// Implementations live in etl/sources/ — one file per source type.

// SourceSpec describes a source type.
type SourceSpec struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Dataset is the content of a source file: its header and every data row.
type Dataset struct {
	Header []string
	Rows   []domain.RawRow
}

// Source is the interface every data source must implement.
type Source interface {
	// Spec returns metadata about this source type.
	Spec() SourceSpec

	// Read loads the file at path. The first record is the header.
	// Errors wrap ErrFatalIO when the file cannot be read.
	Read(ctx context.Context, path string) (*Dataset, error)

	// ParseLine parses a single delimited line in the source's dialect.
	ParseLine(line string) ([]string, error)
}

// ── Source Registry ────────────────────────────────────────
// Compile-time registration via init() in each source file.

var (
	registryMu sync.RWMutex
	registry   = map[string]Source{}
)

// RegisterSource registers a source by its spec type.
// Called from init() in each source implementation file.
func RegisterSource(s Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Spec().Type] = s
}

// GetSource returns a registered source by type, or an error if not found.
func GetSource(typ string) (Source, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, typ)
	}
	return s, nil
}

// ListSources returns the specs of all registered sources, sorted by type.
func ListSources() []SourceSpec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	specs := make([]SourceSpec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}
