// Package location validates Nigerian delivery addresses against the static
// table of states and their local government areas (LGAs).
package location

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed regions.yaml
var regionsYAML []byte

// Region is one state and the LGAs listed under it.
type Region struct {
	State string   `yaml:"state" json:"state"`
	LGAs  []string `yaml:"lgas" json:"lgas"`
}

// Table is an indexed, read-only region table.
type Table struct {
	regions []Region
	states  map[string]int
	cities  map[string]map[string]string
}

// NewTable indexes regions. Lookups are case-insensitive and ignore
// surrounding whitespace.
func NewTable(regions []Region) *Table {
	t := &Table{
		regions: regions,
		states:  make(map[string]int, len(regions)),
		cities:  make(map[string]map[string]string, len(regions)),
	}
	for i, r := range regions {
		key := normalize(r.State)
		t.states[key] = i
		lgas := make(map[string]string, len(r.LGAs))
		for _, lga := range r.LGAs {
			lgas[normalize(lga)] = lga
		}
		t.cities[key] = lgas
	}
	return t
}

// Parse decodes a YAML region table.
func Parse(data []byte) (*Table, error) {
	var regions []Region
	if err := yaml.Unmarshal(data, &regions); err != nil {
		return nil, err
	}
	return NewTable(regions), nil
}

// IsValidState reports whether state is a recognised state.
func (t *Table) IsValidState(state string) bool {
	_, ok := t.states[normalize(state)]
	return ok
}

// IsValidCity reports whether state is valid and city is one of its LGAs.
func (t *Table) IsValidCity(state, city string) bool {
	lgas, ok := t.cities[normalize(state)]
	if !ok {
		return false
	}
	_, ok = lgas[normalize(city)]
	return ok
}

// Canonical returns the table spelling of state and city. Unknown values are
// returned trimmed but otherwise unchanged; an unknown state leaves city as is.
func (t *Table) Canonical(state, city string) (string, string) {
	state, city = strings.TrimSpace(state), strings.TrimSpace(city)
	i, ok := t.states[normalize(state)]
	if !ok {
		return state, city
	}
	canonicalState := t.regions[i].State
	if name, ok := t.cities[normalize(state)][normalize(city)]; ok {
		return canonicalState, name
	}
	return canonicalState, city
}

// States returns all state names in alphabetical order.
func (t *Table) States() []string {
	out := make([]string, 0, len(t.regions))
	for _, r := range t.regions {
		out = append(out, r.State)
	}
	sort.Strings(out)
	return out
}

// Cities returns the LGAs of state, or nil when state is unknown.
func (t *Table) Cities(state string) []string {
	i, ok := t.states[normalize(state)]
	if !ok {
		return nil
	}
	out := append([]string(nil), t.regions[i].LGAs...)
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded Nigerian region table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(regionsYAML)
		if err != nil {
			panic("location: embedded regions.yaml: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

// IsValidState reports whether state is in the embedded table.
func IsValidState(state string) bool { return Default().IsValidState(state) }

// IsValidCity reports whether city is an LGA of state in the embedded table.
func IsValidCity(state, city string) bool { return Default().IsValidCity(state, city) }
