// Package catalog loads the read-only curriculum of levels and activities.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/debatequest/platform/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

var (
	loadDefaultOnce sync.Once
	defaultCatalog  *domain.Catalog
	defaultErr      error
)

// Default returns the embedded curriculum. It is parsed once per process.
func Default() (*domain.Catalog, error) {
	loadDefaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultCatalogYAML)
	})
	return defaultCatalog, defaultErr
}

// Load reads a catalog from path, or returns the embedded default when path
// is empty.
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML, fills per-kind defaults and validates the result.
func Parse(raw []byte) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	var declared catalogDoc
	if err := yaml.Unmarshal(raw, &declared); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range c.Levels {
		for j := range c.Levels[i].Activities {
			act := &c.Levels[i].Activities[j]
			act.ApplyDefaults()
			declared.activity(i, j).restore(act)
		}
	}
	if err := domain.ValidateCatalog(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// catalogDoc mirrors the scoring fields of a catalog document as pointers,
// so a declared zero can be told apart from an absent key.
type catalogDoc struct {
	Levels []struct {
		Activities []scoringDoc `yaml:"activities"`
	} `yaml:"levels"`
}

type scoringDoc struct {
	PassThreshold  *float64 `yaml:"passThreshold"`
	CorrectDelta   *int     `yaml:"correctDelta"`
	IncorrectDelta *int     `yaml:"incorrectDelta"`
	PartialDelta   *int     `yaml:"partialDelta"`
}

func (d catalogDoc) activity(level, idx int) scoringDoc {
	if level >= len(d.Levels) || idx >= len(d.Levels[level].Activities) {
		return scoringDoc{}
	}
	return d.Levels[level].Activities[idx]
}

// restore puts declared values back over the kind defaults.
func (d scoringDoc) restore(act *domain.Activity) {
	if d.PassThreshold != nil {
		act.PassThreshold = *d.PassThreshold
	}
	if d.CorrectDelta != nil {
		act.CorrectDelta = *d.CorrectDelta
	}
	if d.IncorrectDelta != nil {
		act.IncorrectDelta = *d.IncorrectDelta
	}
	if d.PartialDelta != nil {
		act.PartialDelta = *d.PartialDelta
	}
}
