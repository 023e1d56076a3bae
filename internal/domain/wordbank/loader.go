package wordbank

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

// Loader produces a validated catalogue.
type Loader interface {
	Load(ctx context.Context) (Catalogue, error)
}

// EmbeddedLoader serves the catalogue compiled into the binary.
type EmbeddedLoader struct{}

// Load implements Loader.
func (EmbeddedLoader) Load(_ context.Context) (Catalogue, error) {
	return decode(rawbytes.Provider(defaultCatalogue), "embedded")
}

// FileLoader reads a YAML catalogue from Path.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load(_ context.Context) (Catalogue, error) {
	if _, err := os.Stat(l.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalogue, err)
	}
	return decode(file.Provider(l.Path), l.Path)
}

// NewLoader returns a FileLoader for path, or the embedded catalogue when
// path is empty.
func NewLoader(path string) Loader {
	if path == "" {
		return EmbeddedLoader{}
	}
	return FileLoader{Path: path}
}

// Default returns the embedded catalogue. It panics if the embedded data is
// invalid, which is a build defect.
func Default() Catalogue {
	c, err := EmbeddedLoader{}.Load(context.Background())
	if err != nil {
		panic(err)
	}
	return c
}

func decode(p koanf.Provider, source string) (Catalogue, error) {
	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalogue, source, err)
	}

	var c Catalogue
	if err := k.UnmarshalWithConf("words", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalogue, source, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return c, nil
}
