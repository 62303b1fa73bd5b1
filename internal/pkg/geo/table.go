// Package geo maps the coarse districts users declare to the localities
// (municipalities and cities) events are tagged with.
package geo

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// District is one named district and the localities it contains, in display order.
type District struct {
	Name       string   `json:"name" yaml:"name"`
	Localities []string `json:"localities" yaml:"localities"`
}

// Table is a versioned district→localities map. It is immutable once built.
type Table struct {
	Version   string     `json:"version" yaml:"version"`
	Districts []District `json:"districts" yaml:"districts"`

	index map[string]int
}

// DefaultTable is the built-in district map for Albay province.
var DefaultTable = MustTable("albay-2025.1", []District{
	{Name: "District 1", Localities: []string{"Bacacay", "Malilipot", "Malinao", "Santo Domingo", "Tiwi", "Tabaco"}},
	{Name: "District 2", Localities: []string{"Camalig", "Guinobatan", "Ligao", "Jovellar"}},
	{Name: "District 3", Localities: []string{"Legazpi", "Daraga", "Manito", "Rapu-Rapu"}},
})

// NewTable validates districts and builds a lookup table.
func NewTable(version string, districts []District) (*Table, error) {
	if version == "" {
		return nil, errors.New("district table: version is required")
	}
	t := &Table{Version: version, index: make(map[string]int, len(districts))}
	for i, d := range districts {
		key := Normalize(d.Name)
		if key == "" {
			return nil, fmt.Errorf("district table: district %d has no name", i)
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("district table: duplicate district %q", d.Name)
		}
		locs := make([]string, 0, len(d.Localities))
		for _, l := range d.Localities {
			if Normalize(l) != "" {
				locs = append(locs, l)
			}
		}
		t.index[key] = len(t.Districts)
		t.Districts = append(t.Districts, District{Name: d.Name, Localities: locs})
	}
	return t, nil
}

// MustTable is NewTable that panics on error. Intended for package-level tables.
func MustTable(version string, districts []District) *Table {
	t, err := NewTable(version, districts)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable reads a district table from a YAML file of the form
//
//	version: albay-2025.2
//	districts:
//	  - name: District 1
//	    localities: [Bacacay, Tiwi]
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read district table: %w", err)
	}
	var raw struct {
		Version   string     `yaml:"version"`
		Districts []District `yaml:"districts"`
	}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse district table: %w", err)
	}
	return NewTable(raw.Version, raw.Districts)
}

// Resolve returns the deduplicated union of localities for the given district
// names, in table order. Unknown districts contribute nothing.
func (t *Table) Resolve(districts []string) []string {
	if len(districts) == 0 {
		return nil
	}
	want := make(map[int]bool, len(districts))
	for _, name := range districts {
		if i, ok := t.index[Normalize(name)]; ok {
			want[i] = true
		}
	}
	var out []string
	seen := make(map[string]bool)
	for i, d := range t.Districts {
		if !want[i] {
			continue
		}
		for _, l := range d.Localities {
			key := Normalize(l)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, l)
		}
	}
	return out
}

// Names returns the district names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Districts))
	for i, d := range t.Districts {
		names[i] = d.Name
	}
	return names
}
