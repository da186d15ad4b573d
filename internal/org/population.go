package org

import (
	"fmt"
)

// Population is the full, ordered set of organisms under simulation sharing
// one layout.
type Population struct {
	name   string
	layout *Layout
	orgs   []*Organism
}

// NewPopulation creates an empty population over the given layout.
func NewPopulation(name string, layout *Layout) *Population {
	return &Population{name: name, layout: layout}
}

// Name returns the population's configured name.
func (p *Population) Name() string { return p.name }

// Layout returns the schema shared by all members.
func (p *Population) Layout() *Layout { return p.layout }

// Size returns the number of organisms.
func (p *Population) Size() int { return len(p.orgs) }

// IsEmpty reports whether the population has no organisms.
func (p *Population) IsEmpty() bool { return len(p.orgs) == 0 }

// Inject appends an organism. The organism must conform to this population's
// layout.
func (p *Population) Inject(o *Organism) error {
	if o.Layout() != p.layout {
		return fmt.Errorf("organism layout does not match population %q", p.name)
	}
	p.orgs = append(p.orgs, o)
	return nil
}

// Org returns the organism at position k.
func (p *Population) Org(k int) (*Organism, error) {
	if k < 0 || k >= len(p.orgs) {
		return nil, fmt.Errorf("population %q has no organism at index %d", p.name, k)
	}
	return p.orgs[k], nil
}

// Orgs returns the ordered members. Callers must not mutate the slice.
func (p *Population) Orgs() []*Organism { return p.orgs }

// At materializes the organism at position k as a one-element collection.
func (p *Population) At(k int) (*Collection, error) {
	o, err := p.Org(k)
	if err != nil {
		return nil, err
	}
	c := NewCollection(p.layout)
	c.Insert(o)
	return c, nil
}

// Collect produces a collection view over the whole population in order.
func (p *Population) Collect() *Collection {
	c := NewCollection(p.layout)
	for _, o := range p.orgs {
		c.Insert(o)
	}
	return c
}

// Clear removes all organisms, keeping the layout.
func (p *Population) Clear() {
	p.orgs = p.orgs[:0]
}
