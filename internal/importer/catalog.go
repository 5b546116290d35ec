// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package importer

import (
	"errors"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ingest-monitor/internal/synth"
	"github.com/pdiddy/ingest-monitor/pkg/types"
)

// Library describes one published guide library to import.
type Library struct {
	Key           string                 `yaml:"key"`
	Name          string                 `yaml:"name"`
	Genes         int                    `yaml:"genes"`
	GuidesPerGene int                    `yaml:"guides_per_gene"`
	Validation    types.ValidationStatus `yaml:"validation"`
	Year          int                    `yaml:"year"`
	Paper         string                 `yaml:"paper"`
	SourceTag     string                 `yaml:"source_tag"`
	GCWeight      int                    `yaml:"gc_weight"`
	EfficiencyMin float64                `yaml:"efficiency_min"`
	EfficiencyMax float64                `yaml:"efficiency_max"`
}

// Catalog is the list of libraries an import run walks in order.
type Catalog struct {
	Libraries []Library `yaml:"libraries"`
}

// libraryOffTarget are the off-target bands shared by every library.
var libraryOffTarget = [3]synth.Range{{Lo: 1.5, Hi: 3.5}, {Lo: 2.5, Hi: 5.0}, {Lo: 3.5, Hi: 7.0}}

// profile returns the synthesis profile for guides of l.
func (l Library) profile() synth.Profile {
	return synth.Profile{
		GCWeight:    l.GCWeight,
		Efficiency:  synth.Range{Lo: l.EfficiencyMin, Hi: l.EfficiencyMax},
		OffTarget:   libraryOffTarget,
		Validation:  l.Validation,
		Title:       l.Paper,
		Year:        l.Year,
		ContextRate: 0.6,
	}
}

// tag returns the source tag stored with the library's records.
func (l Library) tag() string {
	if l.SourceTag != "" {
		return l.SourceTag
	}
	return l.Name
}

// DefaultCatalog returns the built-in libraries.
func DefaultCatalog() Catalog {
	return Catalog{Libraries: []Library{
		{
			Key: "BRUNELLO", Name: "Brunello (Broad Institute)",
			Genes: 19114, GuidesPerGene: 4, Validation: types.ValidationValidated, Year: 2016,
			Paper:    "Genome-scale CRISPR-Cas9 knockout screening (Nature, 2016)",
			GCWeight: 3, EfficiencyMin: 85, EfficiencyMax: 97,
		},
		{
			Key: "GECKO_V2", Name: "GeCKO v2 (Feng Zhang Lab)",
			Genes: 19050, GuidesPerGene: 6, Validation: types.ValidationValidated, Year: 2014,
			Paper:         "Genome-scale CRISPR-Cas9 knockout screens (Science, 2014)",
			EfficiencyMin: 80, EfficiencyMax: 95,
		},
		{
			Key: "TKOV3", Name: "TKOv3 (Toronto Knockout Library)",
			Genes: 18053, GuidesPerGene: 4, Validation: types.ValidationValidated, Year: 2018,
			Paper:    "Optimized sgRNA design to maximize activity (Nature Biotechnology, 2018)",
			GCWeight: 2, EfficiencyMin: 83, EfficiencyMax: 96,
		},
		{
			Key: "BRIE", Name: "Brie Library (Broad Institute)",
			Genes: 20000, GuidesPerGene: 6, Validation: types.ValidationValidated, Year: 2019,
			Paper:    "Improved genome-wide CRISPR screens (Cell, 2019)",
			GCWeight: 3, EfficiencyMin: 87, EfficiencyMax: 98,
		},
		{
			Key: "SABATINI", Name: "Sabatini Lab Essentiality Library",
			Genes: 18000, GuidesPerGene: 5, Validation: types.ValidationValidated, Year: 2017,
			Paper:         "Defining essential genes in human cells (Cell, 2017)",
			EfficiencyMin: 82, EfficiencyMax: 94,
		},
	}}
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every library for usable sizes and ranges.
func (c Catalog) Validate() error {
	if len(c.Libraries) == 0 {
		return errors.New("no libraries")
	}
	seen := make(map[string]bool, len(c.Libraries))
	var errs []error
	for i, l := range c.Libraries {
		switch {
		case l.Key == "":
			errs = append(errs, fmt.Errorf("library %d: key is required", i))
		case seen[l.Key]:
			errs = append(errs, fmt.Errorf("library %s: duplicate key", l.Key))
		}
		seen[l.Key] = true
		if l.Genes <= 0 || l.GuidesPerGene <= 0 {
			errs = append(errs, fmt.Errorf("library %s: genes and guides_per_gene must be positive", l.Key))
		}
		if l.EfficiencyMax < l.EfficiencyMin {
			errs = append(errs, fmt.Errorf("library %s: efficiency_max below efficiency_min", l.Key))
		}
		switch l.Validation {
		case "", types.ValidationValidated, types.ValidationPublished, types.ValidationPredicted:
		default:
			errs = append(errs, fmt.Errorf("library %s: unknown validation %q", l.Key, l.Validation))
		}
	}
	return errors.Join(errs...)
}
