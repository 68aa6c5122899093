package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/genflow/types"
)

// Catalog is an immutable, ordered collection of model specs.
type Catalog struct {
	order []string
	byID  map[string]*ModelSpec
}

// New builds a catalog from specs, preserving order. Duplicate IDs are
// rejected.
func New(specs []ModelSpec) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*ModelSpec, len(specs))}
	for i := range specs {
		s := specs[i]
		if s.ID == "" {
			return nil, fmt.Errorf("catalog: model at index %d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", s.ID)
		}
		if !s.Category.Valid() {
			return nil, fmt.Errorf("catalog: model %q has unknown category %q", s.ID, s.Category)
		}
		c.order = append(c.order, s.ID)
		c.byID[s.ID] = &s
	}
	return c, nil
}

// LoadFile reads a YAML model table and builds a catalog from it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc struct {
		Models []ModelSpec `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(doc.Models)
}

// Get returns the spec for id, or nil when unknown.
func (c *Catalog) Get(id string) *ModelSpec {
	return c.byID[id]
}

// Lookup returns the spec for id or a MODEL_NOT_FOUND error.
func (c *Catalog) Lookup(id string) (*ModelSpec, *types.Error) {
	s := c.byID[id]
	if s == nil {
		return nil, types.NewError(types.ErrModelNotFound, "unknown model: "+id).WithModel(id)
	}
	return s, nil
}

// IDs returns the model ids in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ByCategory returns the specs of one category in catalog order.
func (c *Catalog) ByCategory(cat types.Category) []*ModelSpec {
	var out []*ModelSpec
	for _, id := range c.order {
		if s := c.byID[id]; s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int { return len(c.order) }
