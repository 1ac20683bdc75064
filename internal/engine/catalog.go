package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/SimonWaldherr/tinyFrame/internal/storage"
)

// Catalog is a named registry of tables. Names are case-sensitive, like
// column names. Catalog is safe for concurrent use; the tables themselves
// are immutable and need no locking.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: map[string]*Table{}}
}

// Get returns a table by name.
func (c *Catalog) Get(name string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: table %q", storage.ErrLabelNotFound, name)
	}
	return t, nil
}

// Put registers a new table; it fails if the name is taken.
func (c *Catalog) Put(name string, t *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[name]; exists {
		return fmt.Errorf("table %q already exists", name)
	}
	c.tables[name] = t
	return nil
}

// Replace registers t under name, returning the table it displaced, if any.
func (c *Catalog) Replace(name string, t *Table) *Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.tables[name]
	c.tables[name] = t
	return old
}

// Drop removes a table.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; !ok {
		return fmt.Errorf("%w: table %q", storage.ErrLabelNotFound, name)
	}
	delete(c.tables, name)
	return nil
}

// Names lists the registered tables sorted by name.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for k := range c.tables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tables.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
