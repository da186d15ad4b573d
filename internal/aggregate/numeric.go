package aggregate

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/equation"
	"github.com/vk/evogrid/internal/org"
)

// buildNumeric wires the numeric result family: the expression is compiled
// once and evaluated per organism at aggregation time.
func (b *Builder) buildNumeric(exprText string, spec modeSpec) (Func, error) {
	get, err := b.Compiler.Compile(exprText)
	if err != nil {
		return nil, err
	}
	def := defaultValue(spec, false)

	evalAll := func(col *org.Collection) ([]float64, error) {
		out := make([]float64, 0, col.Size())
		for _, o := range col.Orgs() {
			v, err := get(o)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	// wrap guards every mode with the empty-collection default and routes
	// evaluation errors to the sink without partial results.
	wrap := func(calc func([]float64) cty.Value) Func {
		return func(col *org.Collection) cty.Value {
			if col.IsEmpty() {
				return def
			}
			vals, err := evalAll(col)
			if err != nil {
				b.report(err.Error())
				return def
			}
			return calc(vals)
		}
	}

	switch spec.kind {
	case modeFirst:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(vals[0])
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
			v, err := get(o)
			if err != nil {
				b.report(err.Error())
				return def
			}
			return org.NumberVal(v)
		}, nil
	case modeCompare:
		return b.buildNumericCompare(get, spec, def)
	case modeRichness:
		return wrap(func(vals []float64) cty.Value {
			return cty.NumberIntVal(int64(distinctCount(vals)))
		}), nil
	case modeDominant:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(mostFrequent(vals))
		}), nil
	case modeMin:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(minOf(vals))
		}), nil
	case modeMax:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(maxOf(vals))
		}), nil
	case modeMinID:
		return wrap(func(vals []float64) cty.Value {
			return cty.NumberIntVal(int64(minIndex(vals)))
		}), nil
	case modeMaxID:
		return wrap(func(vals []float64) cty.Value {
			return cty.NumberIntVal(int64(maxIndex(vals)))
		}), nil
	case modeMean:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(meanOf(vals))
		}), nil
	case modeMedian:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(medianOf(vals))
		}), nil
	case modeVariance:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(varianceOf(vals))
		}), nil
	case modeStddev:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(math.Sqrt(varianceOf(vals)))
		}), nil
	case modeSum:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(sumOf(vals))
		}), nil
	case modeEntropy:
		return wrap(func(vals []float64) cty.Value {
			return org.NumberVal(entropy(vals))
		}), nil
	case modeMutualInfo:
		return b.buildMutualInfo(evalAll, spec, def)
	}
	return nil, fmt.Errorf("unknown aggregation mode")
}

func (b *Builder) buildNumericCompare(get equation.Func, spec modeSpec, def cty.Value) (Func, error) {
	test := numComparator(spec.op)

	var rhs equation.Func
	if spec.rhsIsTrait {
		if !b.Layout.IsNumeric(spec.rhsTrait) {
			return nil, fmt.Errorf("cannot compare a numeric expression with text trait %q", spec.rhsTrait)
		}
		var err error
		rhs, err = b.Compiler.Compile(spec.rhsTrait)
		if err != nil {
			return nil, err
		}
	} else if spec.rhsIsText {
		return nil, fmt.Errorf("cannot compare a numeric expression with text literal %q", spec.rhsText)
	}

	return func(col *org.Collection) cty.Value {
		if col.IsEmpty() {
			return def
		}
		count := 0
		for _, o := range col.Orgs() {
			lhs, err := get(o)
			if err != nil {
				b.report(err.Error())
				return def
			}
			want := spec.rhsNum
			if rhs != nil {
				want, err = rhs(o)
				if err != nil {
					b.report(err.Error())
					return def
				}
			}
			if test(lhs, want) {
				count++
			}
		}
		return cty.NumberIntVal(int64(count))
	}, nil
}

func (b *Builder) buildMutualInfo(evalAll func(*org.Collection) ([]float64, error), spec modeSpec, def cty.Value) (Func, error) {
	otherID, err := b.Layout.ID(spec.otherTrait)
	if err != nil {
		return nil, err
	}
	otherNumeric := b.Layout.IsNumeric(spec.otherTrait)

	return func(col *org.Collection) cty.Value {
		if col.IsEmpty() {
			return def
		}
		xs, err := evalAll(col)
		if err != nil {
			b.report(err.Error())
			return def
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

func numComparator(op string) func(a, b float64) bool {
	switch op {
	case "==":
		return func(a, b float64) bool { return a == b }
	case "!=":
		return func(a, b float64) bool { return a != b }
	case "<":
		return func(a, b float64) bool { return a < b }
	case ">":
		return func(a, b float64) bool { return a > b }
	case "<=":
		return func(a, b float64) bool { return a <= b }
	default:
		return func(a, b float64) bool { return a >= b }
	}
}
