package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Layout lists the stacks created right after the home stack at boot.
type Layout struct {
	Stacks []StackSpec `yaml:"stacks" toml:"stacks"`
}

// StackSpec mirrors the arguments of a stack creation call.
type StackSpec struct {
	RelativeID int     `yaml:"relative_id" toml:"relative_id"`
	Position   int     `yaml:"position" toml:"position"`
	Weight     float64 `yaml:"weight" toml:"weight"`
}

// LoadLayout reads a layout file. The format follows the extension:
// .yaml/.yml or .toml.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}
	return ParseLayout(data, filepath.Ext(path))
}

// ParseLayout decodes layout bytes in the format named by ext.
func ParseLayout(data []byte, ext string) (*Layout, error) {
	var layout Layout
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("failed to parse yaml layout: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &layout); err != nil {
			return nil, fmt.Errorf("failed to parse toml layout: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported layout format %q", ext)
	}

	for i, s := range layout.Stacks {
		if s.Weight < 0 || s.Weight > 1 {
			return nil, fmt.Errorf("stack %d: weight %.2f outside [0,1]", i, s.Weight)
		}
		if s.Weight == 0 {
			layout.Stacks[i].Weight = 1
		}
	}
	return &layout, nil
}
