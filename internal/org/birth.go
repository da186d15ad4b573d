package org

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"
)

// ResetRecorder receives pre-reset trait values for archiving. The archive
// package provides memory and sqlite implementations.
type ResetRecorder interface {
	RecordReset(ctx context.Context, orgID, traitName string, value cty.Value, policy trait.Archive) error
}

// Birth creates a child organism from one or more parents, applying each
// descriptor's inheritance policy. Descriptors with the parent-reset flag
// also reset every parent's own value to the computed child value, archiving
// the parents' pre-reset values through rec first. With no parents the child
// is an injected organism and every trait takes its default.
func Birth(ctx context.Context, layout *Layout, parents []*Organism, rec ResetRecorder) (*Organism, error) {
	child := NewOrganism(layout)
	if len(parents) == 0 {
		return child, nil
	}

	for id, d := range layout.Descriptors() {
		value, err := inheritedValue(d, id, parents)
		if err != nil {
			return nil, err
		}
		if value != cty.NilVal {
			if err := child.SetTrait(id, value); err != nil {
				return nil, err
			}
		}
		if !d.ResetsParent() {
			continue
		}
		for _, parent := range parents {
			if d.ArchivePolicy() != trait.ArchiveNone && rec != nil {
				if err := rec.RecordReset(ctx, parent.ID(), d.Name(), parent.Trait(id), d.ArchivePolicy()); err != nil {
					return nil, err
				}
			}
			if err := parent.SetTrait(id, child.Trait(id)); err != nil {
				return nil, err
			}
		}
	}
	return child, nil
}

// inheritedValue computes the child's starting value for one trait, or
// cty.NilVal when the default (already present on the fresh child) applies.
func inheritedValue(d *trait.Descriptor, id int, parents []*Organism) (cty.Value, error) {
	switch d.InitPolicy() {
	case trait.InitDefault:
		return cty.NilVal, nil
	case trait.InitParent:
		return parents[0].Trait(id), nil
	case trait.InitAverage, trait.InitMinimum, trait.InitMaximum:
		if !d.IsNumeric() {
			return cty.NilVal, fmt.Errorf(
				"trait %q: %s inheritance requires a numeric type, not %s",
				d.Name(), d.InitPolicy(), d.Type().FriendlyName())
		}
		return numericInheritance(d.InitPolicy(), id, parents)
	default:
		return cty.NilVal, fmt.Errorf("trait %q: unknown inheritance policy", d.Name())
	}
}

func numericInheritance(policy trait.Init, id int, parents []*Organism) (cty.Value, error) {
	first, err := parents[0].TraitNumber(id)
	if err != nil {
		return cty.NilVal, err
	}
	acc := first
	for _, p := range parents[1:] {
		v, err := p.TraitNumber(id)
		if err != nil {
			return cty.NilVal, err
		}
		switch policy {
		case trait.InitAverage:
			acc += v
		case trait.InitMinimum:
			if v < acc {
				acc = v
			}
		case trait.InitMaximum:
			if v > acc {
				acc = v
			}
		}
	}
	if policy == trait.InitAverage {
		acc /= float64(len(parents))
	}
	return NumberVal(acc), nil
}
