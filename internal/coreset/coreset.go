// Package coreset models a curated core set of ortholog groups: the
// completeness yardstick a query gene set is assessed against. A core set
// is immutable once loaded.
package coreset

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Protein is one reference protein inside a gene group.
type Protein struct {
	ID      string `yaml:"id"`
	Species string `yaml:"species"`
	Length  int    `yaml:"length"`
}

// GeneGroup is one ortholog group, represented by one protein per
// reference species. The protein order is the order of the source file.
type GeneGroup struct {
	ID       string    `yaml:"id"`
	Proteins []Protein `yaml:"proteins"`
}

// Species returns the reference species of the group, in protein order.
func (g *GeneGroup) Species() []string {
	out := make([]string, 0, len(g.Proteins))
	for _, p := range g.Proteins {
		out = append(out, p.Species)
	}
	return out
}

// HasSpecies reports whether species is a reference species of the group.
func (g *GeneGroup) HasSpecies(species string) bool {
	for _, p := range g.Proteins {
		if p.Species == species {
			return true
		}
	}
	return false
}

// Lengths returns the sequence lengths of the group proteins.
func (g *GeneGroup) Lengths() []float64 {
	out := make([]float64, 0, len(g.Proteins))
	for _, p := range g.Proteins {
		out = append(out, float64(p.Length))
	}
	return out
}

// CoreSet is a named, ordered collection of gene groups.
type CoreSet struct {
	Name   string      `yaml:"name"`
	Groups []GeneGroup `yaml:"groups"`

	byID map[string]*GeneGroup
}

// Load reads and validates a core-set definition from a YAML file.
func Load(path string) (*CoreSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read core set: %w", err)
	}
	var cs CoreSet
	if err := yaml.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse core set %s: %w", path, err)
	}
	if err := cs.validate(); err != nil {
		return nil, fmt.Errorf("core set %s: %w", path, err)
	}
	cs.index()
	return &cs, nil
}

func (cs *CoreSet) validate() error {
	if cs.Name == "" {
		return fmt.Errorf("missing core set name")
	}
	if len(cs.Groups) == 0 {
		return fmt.Errorf("no gene groups defined")
	}
	seen := make(map[string]bool, len(cs.Groups))
	for i := range cs.Groups {
		g := &cs.Groups[i]
		if g.ID == "" {
			return fmt.Errorf("group %d: missing id", i)
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate group id %q", g.ID)
		}
		seen[g.ID] = true
		if len(g.Proteins) == 0 {
			return fmt.Errorf("group %s: no reference proteins", g.ID)
		}
		for j, p := range g.Proteins {
			if p.ID == "" || p.Species == "" {
				return fmt.Errorf("group %s: protein %d: missing id or species", g.ID, j)
			}
		}
	}
	return nil
}

func (cs *CoreSet) index() {
	cs.byID = make(map[string]*GeneGroup, len(cs.Groups))
	for i := range cs.Groups {
		cs.byID[cs.Groups[i].ID] = &cs.Groups[i]
	}
}

// Group returns the gene group with the given ID, or nil if unknown.
func (cs *CoreSet) Group(id string) *GeneGroup {
	if cs.byID == nil {
		cs.index()
	}
	return cs.byID[id]
}

// HasGroup reports whether id names a gene group of this core set.
func (cs *CoreSet) HasGroup(id string) bool {
	return cs.Group(id) != nil
}

// Species returns the sorted union of reference species across all groups.
func (cs *CoreSet) Species() []string {
	set := make(map[string]bool)
	for i := range cs.Groups {
		for _, s := range cs.Groups[i].Species() {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
