package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source loads the raw item list from wherever the catalog is maintained.
type Source interface {
	Load(ctx context.Context) ([]Item, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Item, error)

// Load implements Source.
func (f SourceFunc) Load(ctx context.Context) ([]Item, error) { return f(ctx) }

// FileSource reads the catalog from a YAML (or JSON) document of the form
// `items: [...]`.
type FileSource struct {
	Path string
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// Load implements Source.
func (s FileSource) Load(_ context.Context) ([]Item, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return nil, errors.New("catalog: file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a catalog document.
func ParseYAML(data []byte) ([]Item, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return doc.Items, nil
}
