package aggregate

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/org"
)

// buildText wires the textual result family, used when the expression is a
// bare identifier for a non-numeric layout trait. Values are the trait's
// text rendering; ordering is lexicographic.
func (b *Builder) buildText(traitName string, spec modeSpec) (Func, error) {
	id, err := b.Layout.ID(traitName)
	if err != nil {
		return nil, err
	}
	def := defaultValue(spec, true)

	textAll := func(col *org.Collection) []string {
		out := make([]string, 0, col.Size())
		for _, o := range col.Orgs() {
			out = append(out, o.TraitText(id))
		}
		return out
	}

	wrap := func(calc func([]string) cty.Value) Func {
		return func(col *org.Collection) cty.Value {
			if col.IsEmpty() {
				return def
			}
			return calc(textAll(col))
		}
	}

	switch spec.kind {
	case modeFirst:
		return wrap(func(vals []string) cty.Value {
			return cty.StringVal(vals[0])
		}), nil
	case modeIndex:
		k := spec.index
		return func(col *org.Collection) cty.Value {
			if col.IsEmpty() {
				return def
			}
			o, err := col.Org(k)
			if err != nil {
				b.report(err.Error())
				return def
			}
			return cty.StringVal(o.TraitText(id))
		}, nil
	case modeCompare:
		return b.buildTextCompare(id, spec, def)
	case modeRichness:
		return wrap(func(vals []string) cty.Value {
			return cty.NumberIntVal(int64(distinctCount(vals)))
		}), nil
	case modeDominant:
		return wrap(func(vals []string) cty.Value {
			return cty.StringVal(mostFrequent(vals))
		}), nil
	case modeMin:
		return wrap(func(vals []string) cty.Value {
			return cty.StringVal(minOf(vals))
		}), nil
	case modeMax:
		return wrap(func(vals []string) cty.Value {
			return cty.StringVal(maxOf(vals))
		}), nil
	case modeMinID:
		return wrap(func(vals []string) cty.Value {
			return cty.NumberIntVal(int64(minIndex(vals)))
		}), nil
	case modeMaxID:
		return wrap(func(vals []string) cty.Value {
			return cty.NumberIntVal(int64(maxIndex(vals)))
		}), nil
	case modeEntropy:
		return wrap(func(vals []string) cty.Value {
			return org.NumberVal(entropy(vals))
		}), nil
	case modeMutualInfo:
		return b.buildTextMutualInfo(id, spec, def)
	case modeMean, modeMedian, modeVariance, modeStddev, modeSum:
		return nil, fmt.Errorf("numeric statistic is undefined for text trait %q", traitName)
	}
	return nil, fmt.Errorf("unknown aggregation mode")
}

func (b *Builder) buildTextCompare(id int, spec modeSpec, def cty.Value) (Func, error) {
	// parseMode already restricted text comparisons to == and !=.
	wantEqual := spec.op == "=="

	var rhsID int
	if spec.rhsIsTrait {
		var err error
		rhsID, err = b.Layout.ID(spec.rhsTrait)
		if err != nil {
			return nil, err
		}
	}

	return func(col *org.Collection) cty.Value {
		if col.IsEmpty() {
			return def
		}
		count := 0
		for _, o := range col.Orgs() {
			want := spec.rhsText
			if spec.rhsIsTrait {
				want = o.TraitText(rhsID)
			}
			if (o.TraitText(id) == want) == wantEqual {
				count++
			}
		}
		return cty.NumberIntVal(int64(count))
	}, nil
}

func (b *Builder) buildTextMutualInfo(id int, spec modeSpec, def cty.Value) (Func, error) {
	otherID, err := b.Layout.ID(spec.otherTrait)
	if err != nil {
		return nil, err
	}
	otherNumeric := b.Layout.IsNumeric(spec.otherTrait)

	return func(col *org.Collection) cty.Value {
		if col.IsEmpty() {
			return def
		}
		xs := make([]string, 0, col.Size())
		for _, o := range col.Orgs() {
			xs = append(xs, o.TraitText(id))
		}
		if otherNumeric {
			ys := make([]float64, 0, col.Size())
			for _, o := range col.Orgs() {
				v, err := o.TraitNumber(otherID)
				if err != nil {
					b.report(err.Error())
					return def
				}
				ys = append(ys, v)
			}
			return org.NumberVal(mutualInformation(xs, ys))
		}
		ys := make([]string, 0, col.Size())
		for _, o := range col.Orgs() {
			ys = append(ys, o.TraitText(otherID))
		}
		return org.NumberVal(mutualInformation(xs, ys))
	}, nil
}
