// Package actions manages the vocabulary of selectable event types.
package actions

import (
	"fmt"
	"strings"

	"github.com/okian/pitchtag/internal/domain/model"
)

// Catalog is an ordered set of action definitions keyed by Value.
// It is not safe for concurrent use; owners serialize access.
type Catalog struct {
	defs  []model.ActionDefinition
	index map[string]int
}

// NewCatalog creates a catalog seeded with defs. Duplicate values after the
// first are ignored.
func NewCatalog(defs ...model.ActionDefinition) *Catalog {
	c := &Catalog{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		_, _ = c.Add(d)
	}
	return c
}

// Add appends def. It returns false without error when def.Value already
// exists; the existing definition is kept.
func (c *Catalog) Add(def model.ActionDefinition) (bool, error) {
	def.Value = strings.TrimSpace(def.Value)
	def.Label = strings.TrimSpace(def.Label)
	if def.Value == "" {
		return false, fmt.Errorf("%w: missing value", ErrInvalidDefinition)
	}
	if def.Label == "" {
		def.Label = def.Value
	}
	if !def.Interaction.Valid() {
		return false, fmt.Errorf("%w: interaction type %q", ErrInvalidDefinition, def.Interaction)
	}
	if _, ok := c.index[def.Value]; ok {
		return false, nil
	}
	c.index[def.Value] = len(c.defs)
	c.defs = append(c.defs, def)
	return true, nil
}

// Remove deletes the definition with value. It reports whether one existed.
func (c *Catalog) Remove(value string) bool {
	i, ok := c.index[value]
	if !ok {
		return false
	}
	c.defs = append(c.defs[:i], c.defs[i+1:]...)
	delete(c.index, value)
	for j := i; j < len(c.defs); j++ {
		c.index[c.defs[j].Value] = j
	}
	return true
}

// Lookup returns the definition with value.
func (c *Catalog) Lookup(value string) (model.ActionDefinition, bool) {
	i, ok := c.index[value]
	if !ok {
		return model.ActionDefinition{}, false
	}
	return c.defs[i], true
}

// List returns a copy of the definitions in insertion order.
func (c *Catalog) List() []model.ActionDefinition {
	out := make([]model.ActionDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Values returns the active-action vocabulary.
func (c *Catalog) Values() []string {
	out := make([]string, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Value
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int { return len(c.defs) }
