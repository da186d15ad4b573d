package org

import (
	"fmt"
)

// Collection is an arbitrary ordered view over organisms, such as a filter
// result. Unlike a Population it does not own its members; it only references
// them.
type Collection struct {
	layout *Layout
	orgs   []*Organism
}

// NewCollection creates an empty collection over the given layout.
func NewCollection(layout *Layout) *Collection {
	return &Collection{layout: layout}
}

// Layout returns the schema shared by all members.
func (c *Collection) Layout() *Layout { return c.layout }

// Size returns the number of organisms in the view.
func (c *Collection) Size() int { return len(c.orgs) }

// IsEmpty reports whether the view has no organisms.
func (c *Collection) IsEmpty() bool { return len(c.orgs) == 0 }

// Insert appends an organism reference to the view.
func (c *Collection) Insert(o *Organism) {
	c.orgs = append(c.orgs, o)
}

// First returns the first organism in the view.
func (c *Collection) First() (*Organism, error) {
	if len(c.orgs) == 0 {
		return nil, fmt.Errorf("collection is empty")
	}
	return c.orgs[0], nil
}

// Org returns the organism at position k within the view.
func (c *Collection) Org(k int) (*Organism, error) {
	if k < 0 || k >= len(c.orgs) {
		return nil, fmt.Errorf("collection has no organism at index %d", k)
	}
	return c.orgs[k], nil
}

// Orgs returns the ordered members. Callers must not mutate the slice.
func (c *Collection) Orgs() []*Organism { return c.orgs }
