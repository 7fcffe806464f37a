package options

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static serves option lists loaded once at startup.
type Static struct {
	sources map[string][]Option
}

// NewStatic wraps in-memory lists.
func NewStatic(sources map[string][]Option) *Static {
	s := &Static{sources: make(map[string][]Option, len(sources))}
	for name, opts := range sources {
		s.sources[strings.TrimSpace(name)] = append([]Option(nil), opts...)
	}
	return s
}

// LoadFS walks fsys and parses JSON/YAML files of the form
//
//	sources:
//	  properties:
//	    - {label: Maple Court, value: prop-1}
//
// Declaring the same source in two files is an error. A nil fsys yields an
// empty provider.
func LoadFS(fsys fs.FS) (*Static, error) {
	s := &Static{sources: make(map[string][]Option)}
	if fsys == nil {
		return s, nil
	}

	origin := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isOptionsFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("options: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for name, opts := range doc.Sources {
			id := strings.TrimSpace(name)
			if id == "" {
				return fmt.Errorf("options: file %s defines an empty source name", path)
			}
			if prev, exists := origin[id]; exists {
				return fmt.Errorf("options: duplicate source %q (files %s and %s)", id, prev, path)
			}
			for idx, opt := range opts {
				if strings.TrimSpace(opt.Value) == "" {
					return fmt.Errorf("options: %s: source %q entry %d has no value", path, id, idx)
				}
				if opt.Label == "" {
					opts[idx].Label = opt.Value
				}
			}
			origin[id] = path
			s.sources[id] = opts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options returns a copy of the list for source.
func (s *Static) Options(_ context.Context, source string) ([]Option, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	opts, ok := s.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return append([]Option(nil), opts...), nil
}

// Sources lists the loaded source names.
func (s *Static) Sources() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.sources))
	for name := range s.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type documentFile struct {
	Sources map[string][]Option `json:"sources" yaml:"sources"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("options: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("options: parse %s: invalid JSON or YAML", source)
}

func isOptionsFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
