package script

import (
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/evogrid/internal/aggregate"
	"github.com/vk/evogrid/internal/engine"
	"github.com/vk/evogrid/internal/equation"
	"github.com/vk/evogrid/internal/metrics"
	"github.com/vk/evogrid/internal/org"
)

// Binder owns the script-visible surface: the Population and OrgList types,
// their member functions, and the run-control builtins.
type Binder struct {
	eng     *engine.Engine
	control Control
	met     *metrics.Metrics
	out     io.Writer

	popType  *engine.ScriptType
	listType *engine.ScriptType
}

// Option adjusts a Binder before registration.
type Option func(*Binder)

// WithOutput routes PRINT output to w instead of standard output.
func WithOutput(w io.Writer) Option {
	return func(b *Binder) { b.out = w }
}

// WithMetrics wires the instrumentation counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binder) { b.met = m }
}

// Bind registers the full script surface on eng, delegating run control to
// control.
func Bind(eng *engine.Engine, control Control, opts ...Option) *Binder {
	b := &Binder{
		eng:     eng,
		control: control,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.popType = eng.AddType("Population", "A population of organisms.",
		reflect.TypeOf(org.Population{}))
	b.listType = eng.AddType("OrgList", "A subset of organisms drawn from one population.",
		reflect.TypeOf(org.Collection{}))

	b.bindSummaries()
	b.bindSelections()
	b.bindPopulationOps()
	b.bindBuiltins()
	b.bindDeprecations()

	eng.AddGlobal("random_seed", org.NumberVal(float64(control.RandomSeed())))
	return b
}

// RegisterPopulation makes pop addressable from expressions under its own
// name.
func (b *Binder) RegisterPopulation(pop *org.Population) {
	b.eng.AddGlobal(pop.Name(), b.popType.Wrap(pop))
}

// WrapCollection exposes a collection as a script value.
func (b *Binder) WrapCollection(c *org.Collection) cty.Value {
	return b.listType.Wrap(c)
}

// summaries maps the script-visible name of each aggregation member to the
// mode it pins. TRAIT takes the mode as an optional second argument instead.
var summaries = []struct {
	name string
	mode string
	desc string
}{
	{"CALC_RICHNESS", "richness", "Count the distinct values of a trait."},
	{"CALC_MODE", "dominant", "Most frequent value of a trait."},
	{"CALC_MEAN", "mean", "Mean value of a trait equation."},
	{"CALC_MIN", "min", "Smallest value of a trait equation."},
	{"CALC_MAX", "max", "Largest value of a trait equation."},
	{"ID_MIN", "min_id", "Index of the organism with the smallest value."},
	{"ID_MAX", "max_id", "Index of the organism with the largest value."},
	{"CALC_MEDIAN", "median", "Median value of a trait equation."},
	{"CALC_VARIANCE", "variance", "Variance of a trait equation."},
	{"CALC_STDDEV", "stddev", "Standard deviation of a trait equation."},
	{"CALC_SUM", "sum", "Sum of a trait equation over all organisms."},
	{"CALC_ENTROPY", "entropy", "Normalized Shannon entropy of a trait."},
}

func (b *Binder) bindSummaries() {
	b.addMember("TRAIT",
		"Summarize a trait; an optional second argument selects the aggregation mode.",
		func(recv any, args []cty.Value) (cty.Value, error) {
			exprText, err := argText("TRAIT", args, 0)
			if err != nil {
				return cty.NilVal, err
			}
			mode := ""
			if len(args) > 1 {
				if mode, err = argText("TRAIT", args, 1); err != nil {
					return cty.NilVal, err
				}
			}
			return b.summarize(recv, exprText, mode)
		})

	for _, s := range summaries {
		mode := s.mode
		b.addMember(s.name, s.desc,
			func(recv any, args []cty.Value) (cty.Value, error) {
				exprText, err := argText(s.name, args, 0)
				if err != nil {
					return cty.NilVal, err
				}
				return b.summarize(recv, exprText, mode)
			})
	}
}

func (b *Binder) bindSelections() {
	b.addMember("FIND_MIN",
		"Select the organism with the smallest value of a trait equation.",
		func(recv any, args []cty.Value) (cty.Value, error) {
			return b.findExtreme("FIND_MIN", recv, args, true)
		})
	b.addMember("FIND_MAX",
		"Select the organism with the largest value of a trait equation.",
		func(recv any, args []cty.Value) (cty.Value, error) {
			return b.findExtreme("FIND_MAX", recv, args, false)
		})
	b.addMember("FILTER",
		"Select the organisms for which a trait equation is nonzero.",
		func(recv any, args []cty.Value) (cty.Value, error) {
			src, err := asCollection("FILTER", recv)
			if err != nil {
				return cty.NilVal, err
			}
			exprText, err := argText("FILTER", args, 0)
			if err != nil {
				return cty.NilVal, err
			}
			out := org.NewCollection(src.Layout())
			if src.IsEmpty() {
				return b.listType.Wrap(out), nil
			}
			get, err := b.compiler(src.Layout()).Compile(exprText)
			if err != nil {
				b.eng.ReportError(err.Error())
				return b.listType.Wrap(out), nil
			}
			for _, o := range src.Orgs() {
				v, err := get(o)
				if err != nil {
					b.eng.ReportError(err.Error())
					continue
				}
				if v != 0 {
					out.Insert(o)
				}
			}
			return b.listType.Wrap(out), nil
		})
}

func (b *Binder) bindPopulationOps() {
	b.popType.AddMemberFunction("REPLACE_WITH",
		func(recv any, args []cty.Value) (cty.Value, error) {
			return b.moveInto(recv, args, true)
		},
		"Replace this population's organisms with those of another population.")
	b.popType.AddMemberFunction("APPEND",
		func(recv any, args []cty.Value) (cty.Value, error) {
			return b.moveInto(recv, args, false)
		},
		"Append another population's organisms to this population.")
	b.popType.AddMemberFunction("INJECT",
		func(recv any, args []cty.Value) (cty.Value, error) {
			pop, ok := recv.(*org.Population)
			if !ok {
				return cty.NilVal, fmt.Errorf("INJECT receiver is not a population")
			}
			n := 1
			if len(args) > 0 {
				f, err := org.NumberOf(args[0])
				if err != nil {
					return cty.NilVal, fmt.Errorf("INJECT count: %w", err)
				}
				n = int(f)
			}
			for range n {
				if err := pop.Inject(org.NewOrganism(pop.Layout())); err != nil {
					return cty.NilVal, err
				}
			}
			return org.NumberVal(float64(pop.Size())), nil
		},
		"Inject freshly initialized organisms into this population.")
	b.addMember("SIZE", "Number of organisms.",
		func(recv any, _ []cty.Value) (cty.Value, error) {
			src, err := asCollection("SIZE", recv)
			if err != nil {
				return cty.NilVal, err
			}
			return org.NumberVal(float64(src.Size())), nil
		})
}

func (b *Binder) bindBuiltins() {
	b.eng.AddFunction("EXIT", func([]cty.Value) (cty.Value, error) {
		b.control.RequestExit()
		return cty.Zero, nil
	}, "Request an orderly end of the run.")

	b.eng.AddFunction("GET_UPDATE", func([]cty.Value) (cty.Value, error) {
		return org.NumberVal(float64(b.control.Update())), nil
	}, "Current update number.")

	b.eng.AddFunction("GET_VERBOSE", func([]cty.Value) (cty.Value, error) {
		if b.control.Verbose() {
			return org.NumberVal(1), nil
		}
		return cty.Zero, nil
	}, "Nonzero when verbose output is enabled.")

	b.eng.AddFunction("SET_RANDOM_SEED", func(args []cty.Value) (cty.Value, error) {
		f, err := org.NumberOf(argOrZero(args, 0))
		if err != nil {
			return cty.NilVal, fmt.Errorf("SET_RANDOM_SEED: %w", err)
		}
		seed := int64(f)
		b.control.SetRandomSeed(seed)
		b.eng.AddGlobal("random_seed", org.NumberVal(float64(seed)))
		return org.NumberVal(float64(seed)), nil
	}, "Replace the run's random seed.")

	b.eng.AddFunction("PP", func(args []cty.Value) (cty.Value, error) {
		text, err := argText("PP", args, 0)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(b.eng.Preprocess(text)), nil
	}, "Substitute ${...} spans in a string.")

	b.eng.AddFunction("EXEC", func(args []cty.Value) (cty.Value, error) {
		text, err := argText("EXEC", args, 0)
		if err != nil {
			return cty.NilVal, err
		}
		out, err := b.eng.Execute(b.eng.Preprocess(text))
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(out), nil
	}, "Evaluate a string as an expression and return the printed result.")

	b.eng.AddFunction("PRINT", func(args []cty.Value) (cty.Value, error) {
		for _, a := range args {
			fmt.Fprint(b.out, org.TextOf(a))
		}
		fmt.Fprintln(b.out)
		return cty.Zero, nil
	}, "Print the arguments followed by a newline.")
}

func (b *Binder) bindDeprecations() {
	b.eng.Deprecate("EVAL", "EXEC")
	b.eng.Deprecate("exit", "EXIT")
	b.eng.Deprecate("inject", "INJECT")
	b.eng.Deprecate("print", "PRINT")
}

// summarize builds and applies one aggregation. An empty source short-circuits
// to the mode's default without building, so empty populations never trip
// compile-stage reporting.
func (b *Binder) summarize(recv any, exprText, mode string) (cty.Value, error) {
	src, err := asCollection("trait summary", recv)
	if err != nil {
		return cty.NilVal, err
	}
	builder := b.builder(src.Layout())
	if src.IsEmpty() {
		return builder.Default(exprText, mode), nil
	}
	fn, _ := builder.Build(exprText, mode)
	return fn(src), nil
}

// findExtreme selects the single organism minimizing or maximizing a trait
// equation. Ties keep the earliest organism. Any compile or evaluation
// failure is reported and yields the empty subset.
func (b *Binder) findExtreme(name string, recv any, args []cty.Value, wantMin bool) (cty.Value, error) {
	src, err := asCollection(name, recv)
	if err != nil {
		return cty.NilVal, err
	}
	exprText, err := argText(name, args, 0)
	if err != nil {
		return cty.NilVal, err
	}
	out := org.NewCollection(src.Layout())
	if src.IsEmpty() {
		return b.listType.Wrap(out), nil
	}
	get, err := b.compiler(src.Layout()).Compile(exprText)
	if err != nil {
		b.eng.ReportError(err.Error())
		return b.listType.Wrap(out), nil
	}
	orgs := src.Orgs()
	best := 0
	bestVal, err := get(orgs[0])
	if err != nil {
		b.eng.ReportError(err.Error())
		return b.listType.Wrap(out), nil
	}
	for i, o := range orgs[1:] {
		v, err := get(o)
		if err != nil {
			b.eng.ReportError(err.Error())
			return b.listType.Wrap(out), nil
		}
		if (wantMin && v < bestVal) || (!wantMin && v > bestVal) {
			best, bestVal = i+1, v
		}
	}
	out.Insert(orgs[best])
	return b.listType.Wrap(out), nil
}

func (b *Binder) moveInto(recv any, args []cty.Value, clearDest bool) (cty.Value, error) {
	dest, ok := recv.(*org.Population)
	if !ok {
		return cty.NilVal, fmt.Errorf("receiver is not a population")
	}
	if len(args) == 0 {
		return cty.NilVal, fmt.Errorf("a source population argument is required")
	}
	srcAny, err := b.popType.Unwrap(args[0])
	if err != nil {
		return cty.NilVal, err
	}
	src := srcAny.(*org.Population)
	if err := b.control.MoveOrgs(src, dest, clearDest); err != nil {
		return cty.NilVal, err
	}
	return org.NumberVal(float64(dest.Size())), nil
}

func (b *Binder) compiler(layout *org.Layout) *equation.Compiler {
	return &equation.Compiler{
		Layout:     layout,
		Preprocess: b.eng.Preprocess,
		Funcs:      b.eng.Functions(),
		Metrics:    b.met,
	}
}

func (b *Binder) builder(layout *org.Layout) *aggregate.Builder {
	return &aggregate.Builder{
		Layout:   layout,
		Compiler: b.compiler(layout),
		Report:   b.eng.ReportError,
		Metrics:  b.met,
	}
}

// addMember registers the same member implementation on both script types.
func (b *Binder) addMember(name, desc string, impl engine.MemberFunc) {
	b.popType.AddMemberFunction(name, impl, desc)
	b.listType.AddMemberFunction(name, impl, desc)
}

func asCollection(name string, recv any) (*org.Collection, error) {
	switch v := recv.(type) {
	case *org.Population:
		return v.Collect(), nil
	case *org.Collection:
		return v, nil
	}
	return nil, fmt.Errorf("%s receiver is neither a population nor an organism list", name)
}

func argText(name string, args []cty.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s requires at least %d argument(s)", name, i+1)
	}
	v := args[i]
	if v.IsNull() {
		return "", fmt.Errorf("%s argument %d is null", name, i+1)
	}
	if v.Type() == cty.String {
		return v.AsString(), nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("%s argument %d: %w", name, i+1, err)
	}
	return s.AsString(), nil
}

func argOrZero(args []cty.Value, i int) cty.Value {
	if i >= len(args) {
		return cty.Zero
	}
	return args[i]
}
