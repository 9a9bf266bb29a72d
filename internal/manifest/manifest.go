// Package manifest accumulates package.json fragments contributed by
// independent plugins and writes the merged result once generation ends.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"dario.cat/mergo"
)

// FileName is the package manifest written at the project root.
const FileName = "package.json"

// ErrInvalidFragment indicates a fragment section had an unexpected shape.
var ErrInvalidFragment = errors.New("manifest: invalid fragment")

// Fragment is a partial package.json document. Map-valued sections such as
// "dependencies" or "scripts" are merged key by key; scalar sections are
// replaced.
type Fragment map[string]any

// Manifest is the merged package.json for a project.
type Manifest struct {
	mu   sync.Mutex
	data map[string]any
}

// New creates a manifest seeded with the package name and sensible defaults.
func New(name string) *Manifest {
	return &Manifest{
		data: map[string]any{
			"name":    name,
			"version": "0.1.0",
			"private": true,
			"type":    "module",
		},
	}
}

// Merge folds a fragment into the manifest. Later fragments win on key
// conflicts within a section.
func (m *Manifest) Merge(frag Fragment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, value := range frag {
		src, isMap := value.(map[string]any)
		if !isMap {
			m.data[key] = value
			continue
		}

		dst, ok := m.data[key].(map[string]any)
		if !ok {
			if _, exists := m.data[key]; exists {
				return fmt.Errorf("%w: section %q is not an object", ErrInvalidFragment, key)
			}
			dst = make(map[string]any, len(src))
			m.data[key] = dst
		}
		if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
			return fmt.Errorf("merge section %q: %w", key, err)
		}
	}
	return nil
}

// Section returns a copy of a map-valued section, or nil.
func (m *Manifest) Section(key string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	sec, ok := m.data[key].(map[string]any)
	if !ok {
		return nil
	}
	return maps.Clone(sec)
}

// Dependencies returns the sorted runtime dependency names.
func (m *Manifest) Dependencies() []string {
	deps := m.Section("dependencies")
	return slices.Sorted(maps.Keys(deps))
}

// Bytes renders the manifest as indented JSON with a trailing newline.
func (m *Manifest) Bytes() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(out, '\n'), nil
}

// WriteFile writes the manifest to dir/package.json.
func (m *Manifest) WriteFile(dir string) (string, error) {
	data, err := m.Bytes()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", FileName, err)
	}
	return path, nil
}
