// Package catalog loads the sport catalog and seed form templates from YAML.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"skillcoach/internal/domain/form"
	"skillcoach/internal/domain/sport"
)

//go:embed defaults
var defaults embed.FS

// Catalog is the parsed content of a catalog directory.
type Catalog struct {
	Sports    []sport.Sport
	Templates []form.Template
}

type sportsFile struct {
	Sports []sport.Sport `yaml:"sports"`
}

// Default returns the catalog shipped with the binary.
func Default() (Catalog, error) {
	sub, err := fs.Sub(defaults, "defaults")
	if err != nil {
		return Catalog{}, err
	}
	return LoadFS(sub)
}

// Load reads a catalog from dir, or the built-in catalog when dir is empty.
func Load(dir string) (Catalog, error) {
	if dir == "" {
		return Default()
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS parses sports.yaml and every templates/*.yaml file in fsys.
// POST: every sport and template passes Validate; IDs are unique
func LoadFS(fsys fs.FS) (Catalog, error) {
	var c Catalog

	data, err := fs.ReadFile(fsys, "sports.yaml")
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read sports.yaml: %w", err)
	}
	var sf sportsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse sports.yaml: %w", err)
	}
	seen := make(map[string]bool)
	for _, s := range sf.Sports {
		if err := s.Validate(); err != nil {
			return Catalog{}, fmt.Errorf("catalog: sport %q: %w", s.ID, err)
		}
		if seen[s.ID] {
			return Catalog{}, fmt.Errorf("catalog: duplicate sport %q", s.ID)
		}
		seen[s.ID] = true
		c.Sports = append(c.Sports, s)
	}

	files, err := fs.Glob(fsys, "templates/*.yaml")
	if err != nil {
		return Catalog{}, err
	}
	sort.Strings(files)
	seen = make(map[string]bool)
	for _, name := range files {
		t, err := loadTemplate(fsys, name)
		if err != nil {
			return Catalog{}, err
		}
		if t.SportID != "" && !hasSport(c.Sports, t.SportID) {
			return Catalog{}, fmt.Errorf("catalog: template %s: unknown sport %q", name, t.SportID)
		}
		if seen[t.ID] {
			return Catalog{}, fmt.Errorf("catalog: duplicate template %q", t.ID)
		}
		seen[t.ID] = true
		c.Templates = append(c.Templates, t)
	}
	return c, nil
}

func loadTemplate(fsys fs.FS, name string) (form.Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return form.Template{}, fmt.Errorf("catalog: read %s: %w", name, err)
	}
	var t form.Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return form.Template{}, fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	if t.ID == "" {
		t.ID = strings.TrimSuffix(path.Base(name), ".yaml")
	}
	if err := t.Validate(); err != nil {
		return form.Template{}, fmt.Errorf("catalog: template %s: %w", name, err)
	}
	return t, nil
}

func hasSport(sports []sport.Sport, id string) bool {
	for _, s := range sports {
		if s.ID == id {
			return true
		}
	}
	return false
}
