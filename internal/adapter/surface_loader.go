package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	m "fuzzplan.dev/pkg/fuzzplan/internal/model"
)

// Format selects the surface file codec.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatForPath picks the codec from a file extension; YAML is the default.
func FormatForPath(path m.FilePath) Format {
	switch strings.ToLower(filepath.Ext(string(path))) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// SurfaceLoader reads API surfaces and trait-implementation tables.
type SurfaceLoader interface {
	// LoadSurface reads a surface file. Impls embedded in the file are
	// returned alongside.
	LoadSurface(path m.FilePath) (m.Surface, []ImplEntry, error)

	// LoadImpls reads a file holding only an impls table.
	LoadImpls(path m.FilePath) ([]ImplEntry, error)
}

// LocalSurfaceLoader loads surfaces from the local filesystem.
type LocalSurfaceLoader struct{}

// NewLocalSurfaceLoader constructs a LocalSurfaceLoader.
func NewLocalSurfaceLoader() *LocalSurfaceLoader {
	return &LocalSurfaceLoader{}
}

// LoadSurface implements SurfaceLoader.
func (l *LocalSurfaceLoader) LoadSurface(path m.FilePath) (m.Surface, []ImplEntry, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return m.Surface{}, nil, fmt.Errorf("failed to read surface %s: %w", path, err)
	}

	surface, impls, err := DecodeSurface(data, FormatForPath(path))
	if err != nil {
		return m.Surface{}, nil, fmt.Errorf("failed to decode surface %s: %w", path, err)
	}

	slog.Debug("loaded surface", "path", path, "functions", len(surface.Functions), "structs", len(surface.Structs), "impls", len(impls))

	return surface, impls, nil
}

// LoadImpls implements SurfaceLoader.
func (l *LocalSurfaceLoader) LoadImpls(path m.FilePath) ([]ImplEntry, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read impls %s: %w", path, err)
	}

	_, impls, err := DecodeSurface(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode impls %s: %w", path, err)
	}

	return impls, nil
}

// DecodeSurface decodes a surface document in the given format.
func DecodeSurface(data []byte, format Format) (m.Surface, []ImplEntry, error) {
	var doc surfaceDoc

	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return m.Surface{}, nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return m.Surface{}, nil, err
		}
	default:
		return m.Surface{}, nil, fmt.Errorf("unsupported surface format %q", format)
	}

	return doc.toModel()
}

// ParseCandidates turns configured candidate names into types. Primitive
// names become primitives, anything else an unresolved path; a leading & makes
// a shared reference.
func ParseCandidates(names []string) ([]m.Type, error) {
	types := make([]m.Type, 0, len(names))

	for _, name := range names {
		t, err := parseCandidate(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}

		types = append(types, t)
	}

	return types, nil
}

func parseCandidate(name string) (m.Type, error) {
	if rest, ok := strings.CutPrefix(name, "&"); ok {
		elem, err := parseCandidate(strings.TrimSpace(rest))
		if err != nil {
			return nil, err
		}

		return m.BorrowedRef{Elem: elem}, nil
	}

	if name == "" || strings.ContainsAny(name, "<>()[], ") {
		return nil, fmt.Errorf("unsupported candidate type %q", name)
	}

	if kind, err := m.ParsePrimitiveKind(name); err == nil {
		return m.Primitive{Kind: kind}, nil
	}

	return m.PathType{Path: m.NewPath("", name)}, nil
}
