package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFilePattern selects the files LoadDir reads.
const DefaultFilePattern = "*.{yaml,yml}"

var knownTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	"!!null":      true,
	"!!map":       true,
	"!!seq":       true,
	"!!timestamp": true,
	"!!binary":    true,
	"!!merge":     true,
}

// Loader reads YAML documents from a directory.
type Loader struct {
	pattern glob.Glob
}

// NewLoader returns a Loader reading the file names matching pattern.
func NewLoader(pattern string) (*Loader, error) {
	if pattern == "" {
		pattern = DefaultFilePattern
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	return &Loader{pattern: g}, nil
}

// Matches reports whether the base name of path is selected by the loader.
func (l *Loader) Matches(path string) bool {
	return l.pattern.Match(filepath.Base(path))
}

// LoadDir decodes every matching file of dir, in file name order. Empty files
// are skipped. The first malformed file aborts loading.
func (l *Loader) LoadDir(dir string) ([]map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !l.Matches(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	docs := make([]map[string]any, 0, len(names))
	for _, name := range names {
		var raw any
		if err := DecodeFile(filepath.Join(dir, name), &raw); err != nil {
			return nil, err
		}
		doc, ok := Normalize(raw).(map[string]any)
		if !ok || len(doc) == 0 {
			log.Debugf("Skipping %s: not a YAML mapping", name)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// DecodeFile decodes the first YAML document of path into out.
func DecodeFile(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := Decode(file, out); err != nil {
		return fmt.Errorf("YAML parse error in %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Decode decodes the first YAML document of r into out. Tags that are not
// part of the YAML core schema are dropped, so the tagged node decodes as a
// plain scalar, sequence or mapping. An empty input leaves out untouched.
func Decode(r io.Reader, out any) error {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	stripUnknownTags(&node)
	return node.Decode(out)
}

func stripUnknownTags(node *yaml.Node) {
	if node.Kind != yaml.DocumentNode && node.Tag != "" && !knownTags[node.Tag] {
		node.Tag = ""
		node.Style &^= yaml.TaggedStyle
	}
	for _, child := range node.Content {
		stripUnknownTags(child)
	}
}

// Normalize converts mappings with non-string keys into map[string]any so
// decoded documents can be encoded as JSON.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = Normalize(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = Normalize(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = Normalize(item)
		}
		return t
	default:
		return v
	}
}
