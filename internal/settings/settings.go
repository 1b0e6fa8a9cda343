// Package settings manages the registry of laws the bot indexes.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LawSource describes one statute: whether it should be indexed, whether it
// already is, and where its XML archive lives.
type LawSource struct {
	Desired bool   `yaml:"desired"`
	Loaded  bool   `yaml:"loaded"`
	File    string `yaml:"file,omitempty"` // XML file name of the last download
	Link    string `yaml:"link"`           // direct xml.zip archive link
	Website string `yaml:"website"`        // law's portal page
}

// Registry maps law codes to their sources. It is read and written whole.
type Registry map[string]LawSource

// Default returns a starter registry.
func Default() Registry {
	return Registry{
		"EStG": {
			Desired: true,
			Link:    "https://www.gesetze-im-internet.de/estg/xml.zip",
			Website: "https://www.gesetze-im-internet.de/estg/",
		},
	}
}

// Load reads the registry from path. A missing file yields the default
// registry so a fresh checkout can ingest immediately.
func Load(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg, nil
}

// Save writes the registry to path.
func Save(path string, reg Registry) error {
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
