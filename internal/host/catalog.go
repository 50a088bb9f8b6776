package host

import (
	"fmt"
	"sort"
	"sync"
)

type catalogEntry struct {
	desc    NodeDesc
	factory Factory
}

// Catalog is the host's NodeRegistry.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]catalogEntry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]catalogEntry)}
}

// Register implements NodeRegistry.
func (c *Catalog) Register(desc NodeDesc, factory Factory) error {
	if desc.TypeID == "" {
		return fmt.Errorf("node %q has no type id", desc.Name)
	}
	if factory == nil {
		return fmt.Errorf("node %s has no factory", desc.TypeID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[desc.TypeID]; exists {
		return fmt.Errorf("node type already registered: %s", desc.TypeID)
	}
	c.entries[desc.TypeID] = catalogEntry{desc: desc, factory: factory}
	return nil
}

// New instantiates a node by type id.
func (c *Catalog) New(typeID string) (any, NodeDesc, error) {
	c.mu.RLock()
	e, ok := c.entries[typeID]
	c.mu.RUnlock()
	if !ok {
		return nil, NodeDesc{}, fmt.Errorf("unknown node type: %s", typeID)
	}
	return e.factory(), e.desc, nil
}

// Describe returns the descriptor for typeID.
func (c *Catalog) Describe(typeID string) (NodeDesc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[typeID]
	return e.desc, ok
}

// Descriptors returns all registered descriptors sorted by category, then name.
func (c *Catalog) Descriptors() []NodeDesc {
	c.mu.RLock()
	out := make([]NodeDesc, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.desc)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of registered node types.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
