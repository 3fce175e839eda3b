package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/paperdesk/internal/compliance"
	"github.com/mind-engage/paperdesk/internal/resolve"
)

//go:embed defaults.yaml
var defaultTables []byte

// Tables is the policy data injected into the resolver and the compliance
// engine. A tables file only needs the keys it overrides; maps are merged
// key by key and lists replace the default list.
type Tables struct {
	Providers        map[string]string   `yaml:"providers"`
	Programs         map[string]string   `yaml:"programs"`
	Sessions         map[string]string   `yaml:"sessions"`
	PaperTypes       []resolve.PaperType `yaml:"paper_types"`
	PaperCodePattern string              `yaml:"paper_code_pattern"`
	FigureKeywords   []string            `yaml:"figure_keywords"`
	MCQTypes         []string            `yaml:"mcq_types"`
	NumericFormats   []string            `yaml:"numeric_formats"`
	Thresholds       resolve.Thresholds  `yaml:"thresholds"`
}

// DefaultTables parses the embedded defaults.yaml.
func DefaultTables() (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(defaultTables, &t); err != nil {
		return Tables{}, fmt.Errorf("embedded tables: %w", err)
	}
	return t, nil
}

// LoadTables returns the defaults overlaid with the file at path. An empty
// path returns the defaults; a missing or malformed file is an error.
func LoadTables(path string) (Tables, error) {
	t, err := DefaultTables()
	if err != nil {
		return Tables{}, err
	}
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Tables{}, fmt.Errorf("read tables: %w", err)
	}
	var over Tables
	if err := yaml.Unmarshal(data, &over); err != nil {
		return Tables{}, fmt.Errorf("parse tables %s: %w", path, err)
	}
	t.merge(over)
	return t, nil
}

func (t *Tables) merge(o Tables) {
	t.Providers = mergeMap(t.Providers, o.Providers)
	t.Programs = mergeMap(t.Programs, o.Programs)
	t.Sessions = mergeMap(t.Sessions, o.Sessions)
	if len(o.PaperTypes) > 0 {
		t.PaperTypes = o.PaperTypes
	}
	if o.PaperCodePattern != "" {
		t.PaperCodePattern = o.PaperCodePattern
	}
	if len(o.FigureKeywords) > 0 {
		t.FigureKeywords = o.FigureKeywords
	}
	if len(o.MCQTypes) > 0 {
		t.MCQTypes = o.MCQTypes
	}
	if len(o.NumericFormats) > 0 {
		t.NumericFormats = o.NumericFormats
	}
	overlayThresholds(&t.Thresholds, o.Thresholds)
}

func mergeMap(base, over map[string]string) map[string]string {
	if base == nil {
		base = map[string]string{}
	}
	for k, v := range over {
		base[k] = v
	}
	return base
}

func overlayThresholds(dst *resolve.Thresholds, o resolve.Thresholds) {
	set := func(d *float64, v float64) {
		if v != 0 {
			*d = v
		}
	}
	set(&dst.Accept, o.Accept)
	set(&dst.Good, o.Good)
	set(&dst.ProviderMapping, o.ProviderMapping)
	set(&dst.ProgramMapping, o.ProgramMapping)
	set(&dst.SessionMapping, o.SessionMapping)
	set(&dst.SubjectNameMatch, o.SubjectNameMatch)
	set(&dst.ProviderMatch, o.ProviderMatch)
	set(&dst.ProgramMatch, o.ProgramMatch)
	set(&dst.SubjectCodeWeight, o.SubjectCodeWeight)
	set(&dst.SubjectNameWeight, o.SubjectNameWeight)
	set(&dst.ProviderWeight, o.ProviderWeight)
	set(&dst.ProgramWeight, o.ProgramWeight)
}

func (t Tables) Extractor() (*resolve.Extractor, error) {
	return resolve.NewExtractor(
		resolve.Dictionary(t.Providers),
		resolve.Dictionary(t.Programs),
		resolve.Dictionary(t.Sessions),
		t.PaperTypes,
		t.PaperCodePattern,
		t.Thresholds,
	)
}

func (t Tables) Resolver() *resolve.Resolver { return resolve.NewResolver(t.Thresholds) }

func (t Tables) Compliance() compliance.Tables {
	return compliance.Tables{
		FigureKeywords: t.FigureKeywords,
		MCQTypes:       t.MCQTypes,
		NumericFormats: t.NumericFormats,
	}
}
