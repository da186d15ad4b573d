package org

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Organism is one simulated agent carrying a trait store conforming to a
// layout. The store is positional: index i holds the value of the layout's
// trait i.
type Organism struct {
	id     string
	layout *Layout
	store  []cty.Value
}

// NewOrganism creates an organism with every trait set to its descriptor's
// default, or the type's zero value when no default was declared.
func NewOrganism(layout *Layout) *Organism {
	store := make([]cty.Value, layout.Len())
	for i, d := range layout.Descriptors() {
		if d.HasDefault() {
			store[i] = d.Default()
		} else {
			store[i] = zeroValue(d.Type())
		}
	}
	return &Organism{
		id:     uuid.NewString(),
		layout: layout,
		store:  store,
	}
}

// ID returns the organism's unique identity.
func (o *Organism) ID() string { return o.id }

// Layout returns the schema this organism's store conforms to.
func (o *Organism) Layout() *Layout { return o.layout }

// Trait returns the stored value for the trait at id.
func (o *Organism) Trait(id int) cty.Value {
	return o.store[id]
}

// SetTrait replaces the stored value for the trait at id, converting to the
// layout's declared type.
func (o *Organism) SetTrait(id int, v cty.Value) error {
	want := o.layout.Type(id)
	converted, err := convert.Convert(v, want)
	if err != nil {
		return fmt.Errorf("trait %q: %w", o.layout.Descriptor(id).Name(), err)
	}
	o.store[id] = converted
	return nil
}

// TraitNumber returns the trait at id as a float64. Booleans convert as
// true=1, false=0; text fails with a type mismatch.
func (o *Organism) TraitNumber(id int) (float64, error) {
	return NumberOf(o.store[id])
}

// TraitText renders the trait at id as text in its layout-declared type.
func (o *Organism) TraitText(id int) string {
	return TextOf(o.store[id])
}

// NumberOf converts a trait value to a float64 following the tagged union's
// numeric rules.
func NumberOf(v cty.Value) (float64, error) {
	if v.IsNull() {
		return 0, nil
	}
	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case cty.Bool:
		if v.True() {
			return 1, nil
		}
		return 0, nil
	default:
		converted, err := convert.Convert(v, cty.Number)
		if err != nil {
			return 0, fmt.Errorf("value of type %s is not numeric", v.Type().FriendlyName())
		}
		f, _ := converted.AsBigFloat().Float64()
		return f, nil
	}
}

// TextOf renders a trait value as plain text.
func TextOf(v cty.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		converted, err := convert.Convert(v, cty.String)
		if err != nil {
			return ""
		}
		return converted.AsString()
	}
}

// NumberVal wraps a float64 in the tagged union.
func NumberVal(f float64) cty.Value {
	return cty.NumberVal(big.NewFloat(f))
}

func zeroValue(typ cty.Type) cty.Value {
	switch typ {
	case cty.Number:
		return cty.Zero
	case cty.String:
		return cty.StringVal("")
	case cty.Bool:
		return cty.False
	default:
		return cty.NullVal(typ)
	}
}
