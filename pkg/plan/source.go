package plan

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the raw catalog content produced by a Source.
type Definition struct {
	Plans  []Plan
	Resets map[Limit]Reset // limits missing here reset monthly
}

// Source defines how plan definitions are loaded into a Catalog.
type Source interface {
	Load(ctx context.Context) (Definition, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Definition, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) (Definition, error) {
	return f(ctx)
}

type inMemSource struct {
	def Definition
}

// NewInMemSource returns a Source serving a deep copy of the given definition.
// Later changes to def do not leak into the source.
func NewInMemSource(def Definition) Source {
	return &inMemSource{def: cloneDefinition(def)}
}

// Load returns a copy of the definition so callers cannot mutate the source.
func (s *inMemSource) Load(ctx context.Context) (Definition, error) {
	return cloneDefinition(s.def), nil
}

func cloneDefinition(def Definition) Definition {
	out := Definition{
		Plans:  make([]Plan, 0, len(def.Plans)),
		Resets: maps.Clone(def.Resets),
	}
	for _, p := range def.Plans {
		out.Plans = append(out.Plans, p.Clone())
	}
	return out
}

// document is the YAML layout of a catalog file.
type document struct {
	Resets map[Limit]Reset `yaml:"resets"`
	Plans  []planDocument  `yaml:"plans"`
}

type planDocument struct {
	ID          ID                            `yaml:"id"`
	Name        string                        `yaml:"name"`
	Description string                        `yaml:"description"`
	Rank        int                           `yaml:"rank"`
	Features    map[Category]map[Feature]bool `yaml:"features"`
	Limits      map[Limit]int64               `yaml:"limits"`
}

type yamlSource struct {
	data []byte
}

// NewYAMLSource reads a catalog document from r. The reader is consumed immediately;
// unknown document fields are rejected on Load.
func NewYAMLSource(r io.Reader) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return &yamlSource{data: data}, nil
}

// Load decodes the document.
func (s *yamlSource) Load(ctx context.Context) (Definition, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(s.data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Definition{}, errors.Join(ErrFailedToLoadCatalog, err)
	}

	def := Definition{
		Plans:  make([]Plan, 0, len(doc.Plans)),
		Resets: doc.Resets,
	}
	for _, p := range doc.Plans {
		def.Plans = append(def.Plans, Plan{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Rank:        p.Rank,
			Features:    p.Features,
			Limits:      p.Limits,
		})
	}
	return def, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source that reads a YAML catalog from path on every Load.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(ctx context.Context) (Definition, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Definition{}, errors.Join(ErrFailedToLoadCatalog, err)
	}
	defer f.Close()

	src, err := NewYAMLSource(f)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", s.path, err)
	}
	return src.Load(ctx)
}

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Default returns a Source with the built-in four-plan catalog.
func Default() Source {
	return &yamlSource{data: defaultCatalog}
}
