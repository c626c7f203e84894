package prototype

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// #region catalog
// Catalog is an ordered, validated set of prototypes.
type Catalog struct {
	Prototypes []Prototype `yaml:"prototypes"`

	hash string
}

// LoadCatalog reads and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog parses YAML catalog bytes and validates every prototype.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	seen := make(map[string]bool, len(cat.Prototypes))
	for i := range cat.Prototypes {
		p := &cat.Prototypes[i]
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate prototype id %q", p.ID)
		}
		seen[p.ID] = true
	}

	sum := sha256.Sum256(data)
	cat.hash = hex.EncodeToString(sum[:])
	return &cat, nil
}

// Hash returns the content hash of the loaded catalog source, for run
// provenance.
func (c *Catalog) Hash() string {
	return c.hash
}

// Get returns the prototype with the given id.
func (c *Catalog) Get(id string) (Prototype, bool) {
	for _, p := range c.Prototypes {
		if p.ID == id {
			return p, true
		}
	}
	return Prototype{}, false
}

// Snapshot returns an ordered copy of the prototypes for one analysis run.
// Analyses hold the snapshot, never the catalog, so a reload mid-run
// cannot shift results.
func (c *Catalog) Snapshot() []Prototype {
	out := make([]Prototype, len(c.Prototypes))
	copy(out, c.Prototypes)
	return out
}

// Axes returns the sorted union of all axes referenced by weights or gates.
func (c *Catalog) Axes() []string {
	set := make(map[string]bool)
	for _, p := range c.Prototypes {
		for axis := range p.Weights {
			set[axis] = true
		}
		for _, g := range p.Constraints() {
			set[g.Axis] = true
		}
	}
	axes := make([]string, 0, len(set))
	for a := range set {
		axes = append(axes, a)
	}
	sort.Strings(axes)
	return axes
}

// #endregion catalog
