package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// SiteModel caches the UI model decoded from a YAML file until Reset.
type SiteModel struct {
	path string

	mu   sync.Mutex
	data map[string]any
}

// NewSiteModel returns a loader for the YAML file at path.
func NewSiteModel(path string) *SiteModel {
	return &SiteModel{path: path}
}

// Path returns the location of the model source.
func (m *SiteModel) Path() string {
	return m.path
}

// Load returns the cached model, reading it on first use. A missing file
// yields an empty model. Callers must not modify the returned map.
func (m *SiteModel) Load() (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data != nil {
		return m.data, nil
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.data = map[string]any{}
			return m.data, nil
		}
		return nil, fmt.Errorf("read site model: %w", err)
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse site model %s: %w", m.path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	m.data = data
	return m.data, nil
}

// Reset drops the cached model.
func (m *SiteModel) Reset() {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
}
