// Package grids registers the console's grid definitions with the core
// registry. Definitions live in embedded YAML files; custom cell renderers
// are referenced by name and resolved here.
//
// Import this package for its side effect:
//
//	import _ "github.com/JonMunkholm/admingrid/internal/core/grids"
package grids

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/admingrid/internal/core"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

func init() {
	defs, err := LoadFS(definitionsFS, "definitions")
	if err != nil {
		panic(err)
	}
	for _, def := range defs {
		core.Register(def)
	}
}

// LoadFS decodes every *.yaml file under dir, in file-name order.
func LoadFS(fsys fs.FS, dir string) ([]core.Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read grid definitions: %w", err)
	}

	var defs []core.Definition
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		parsed, err := Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		defs = append(defs, parsed...)
	}
	return defs, nil
}

// Decode parses a YAML list of grid definitions. Unknown keys are rejected
// so a typo in a definition fails loudly instead of silently defaulting.
func Decode(b []byte) ([]core.Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var defs []core.Definition
	if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode grid definitions: %w", err)
	}
	for i := range defs {
		if err := resolveRenderers(&defs[i]); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadOverrides reads a YAML file of definitions and stores each one in r,
// replacing any built-in grid with the same key. An empty path is a no-op.
func LoadOverrides(r *core.Registry, file string) (int, error) {
	if file == "" {
		return 0, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("read grid overrides: %w", err)
	}
	defs, err := Decode(b)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", file, err)
	}
	for _, def := range defs {
		if err := r.Replace(def); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}

func resolveRenderers(def *core.Definition) error {
	for i, col := range def.Columns {
		if col.Renderer == "" {
			continue
		}
		fn, ok := renderers[col.Renderer]
		if !ok {
			return fmt.Errorf("grid %q column %q: unknown renderer %q", def.Key, col.Accessor, col.Renderer)
		}
		def.Columns[i].Render = fn
		if col.Kind == "" {
			def.Columns[i].Kind = core.KindCustom
		}
	}
	return nil
}
