// Package org implements the organism-side collaborators of the trait query
// layer: the shared trait layout, per-organism trait stores, populations, and
// ordered collection views over them.
package org

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"
)

// Layout is the schema mapping trait names to identifiers and types, shared
// by all organisms in a population. It is frozen after construction.
type Layout struct {
	ids         map[string]int
	descriptors []*trait.Descriptor
}

// NewLayout builds a layout from descriptors in declaration order. A repeated
// name keeps the first descriptor; cross-module duplicate handling is the
// trait coordinator's job, not the layout's.
func NewLayout(descriptors []*trait.Descriptor) *Layout {
	l := &Layout{ids: make(map[string]int, len(descriptors))}
	for _, d := range descriptors {
		if _, ok := l.ids[d.Name()]; ok {
			continue
		}
		l.ids[d.Name()] = len(l.descriptors)
		l.descriptors = append(l.descriptors, d)
	}
	return l
}

// HasName reports whether a trait with the given name exists in the layout.
func (l *Layout) HasName(name string) bool {
	_, ok := l.ids[name]
	return ok
}

// ID returns the positional identifier for a trait name.
func (l *Layout) ID(name string) (int, error) {
	id, ok := l.ids[name]
	if !ok {
		return 0, fmt.Errorf("layout has no trait named %q", name)
	}
	return id, nil
}

// Type returns the value type tag for the trait at id.
func (l *Layout) Type(id int) cty.Type {
	return l.descriptors[id].Type()
}

// Descriptor returns the descriptor for the trait at id.
func (l *Layout) Descriptor(id int) *trait.Descriptor {
	return l.descriptors[id]
}

// Descriptors returns all descriptors in layout order.
func (l *Layout) Descriptors() []*trait.Descriptor {
	return l.descriptors
}

// Len returns the number of traits in the layout.
func (l *Layout) Len() int { return len(l.descriptors) }

// Names returns all trait names in layout order.
func (l *Layout) Names() []string {
	out := make([]string, len(l.descriptors))
	for i, d := range l.descriptors {
		out[i] = d.Name()
	}
	return out
}

// IsNumeric reports whether the named trait holds numeric values. Unknown
// names are not numeric.
func (l *Layout) IsNumeric(name string) bool {
	id, ok := l.ids[name]
	if !ok {
		return false
	}
	return l.descriptors[id].IsNumeric()
}
