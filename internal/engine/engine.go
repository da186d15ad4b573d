// Package engine is the host scripting surface the trait query layer extends.
// It evaluates single expressions against registered globals and functions,
// exposes a registration surface for script types with member functions, and
// owns the ${} preprocessor hook. It is deliberately not a general language
// runtime: expressions are the math/comparison grammar the layer needs.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/evogrid/internal/metrics"
	"github.com/vk/evogrid/internal/preprocess"
)

// GlobalFunc is the implementation signature for an engine-registered
// function.
type GlobalFunc func(args []cty.Value) (cty.Value, error)

// MemberFunc is the implementation signature for a member function on a
// script type. recv is the unwrapped Go value the capsule carries.
type MemberFunc func(recv any, args []cty.Value) (cty.Value, error)

// Engine holds the evaluation environment: globals, functions, script types,
// and the accumulated recoverable error list. It is mutated only during
// configuration and treated as read-only while expressions run.
type Engine struct {
	globals map[string]cty.Value
	funcs   map[string]function.Function
	descs   map[string]string
	members map[string][]memberBinding
	types   map[string]*ScriptType

	pre    *preprocess.Preprocessor
	logger *slog.Logger
	met    *metrics.Metrics
	onExit func()

	errors []string
}

type memberBinding struct {
	typ  cty.Type
	impl MemberFunc
}

// Option adjusts a new Engine.
type Option func(*Engine)

// WithLogger routes engine warnings to logger instead of the process default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics wires the instrumentation counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.met = m }
}

// WithExitHandler sets the callback invoked when a script requests an
// orderly run termination.
func WithExitHandler(fn func()) Option {
	return func(e *Engine) { e.onExit = fn }
}

// WithMaxTemplateDepth overrides the preprocessor recursion guard.
func WithMaxTemplateDepth(n int) Option {
	return func(e *Engine) {
		e.pre = preprocess.New(e,
			preprocess.WithMaxDepth(n),
			preprocess.WithErrorSink(e.ReportError),
			preprocess.WithOverflowHook(func() { e.met.IncPreprocessOverflow() }),
		)
	}
}

// New creates an engine with the standard math and text functions installed.
func New(opts ...Option) *Engine {
	e := &Engine{
		globals: make(map[string]cty.Value),
		funcs:   make(map[string]function.Function),
		descs:   make(map[string]string),
		members: make(map[string][]memberBinding),
		types:   make(map[string]*ScriptType),
		logger:  slog.Default(),
		onExit:  func() {},
	}
	e.pre = preprocess.New(e,
		preprocess.WithErrorSink(e.ReportError),
		preprocess.WithOverflowHook(func() { e.met.IncPreprocessOverflow() }),
	)
	installStdFunctions(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddGlobal registers (or replaces) a global variable visible to every
// expression.
func (e *Engine) AddGlobal(name string, v cty.Value) {
	e.globals[name] = v
}

// Global returns a registered global variable.
func (e *Engine) Global(name string) (cty.Value, bool) {
	v, ok := e.globals[name]
	return v, ok
}

// AddFunction registers a function callable from expressions. The variadic
// dynamic signature keeps registration uniform; implementations validate
// their own arguments.
func (e *Engine) AddFunction(name string, fn GlobalFunc, desc string) {
	e.funcs[name] = newDynamicFunction(fn)
	e.descs[name] = desc
}

// Functions returns the registered function table, shared with the equation
// compiler so that trait equations and script expressions agree on the
// callable surface.
func (e *Engine) Functions() map[string]function.Function {
	return e.funcs
}

// Preprocess substitutes ${...} spans in text through the engine's own
// evaluator.
func (e *Engine) Preprocess(text string) string {
	return e.pre.Preprocess(text)
}

// EvalValue parses text as a single expression and evaluates it against the
// registered globals and functions.
func (e *Engine) EvalValue(text string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(text), "<expr>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("parse %q: %w", text, diags)
	}
	v, moreDiags := expr.Value(&hcl.EvalContext{
		Variables: e.globals,
		Functions: e.funcs,
	})
	if moreDiags.HasErrors() {
		return cty.NilVal, fmt.Errorf("evaluate %q: %w", text, moreDiags)
	}
	return v, nil
}

// Execute evaluates text and renders the result as a string. It is the
// general evaluation entry the preprocessor substitutes through.
func (e *Engine) Execute(text string) (string, error) {
	v, err := e.EvalValue(text)
	if err != nil {
		return "", err
	}
	if v.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("result of %q is not printable: %w", text, err)
	}
	return s.AsString(), nil
}

// RequestExit asks the orchestration layer for an orderly run termination.
func (e *Engine) RequestExit() {
	e.onExit()
}

// ReportError records a recoverable configuration error. Execution continues
// with safe defaults; the orchestration layer decides before the run starts
// whether accumulated errors should halt it.
func (e *Engine) ReportError(msg string) {
	e.errors = append(e.errors, msg)
	e.met.IncConfigErrors()
	e.logger.Warn("Configuration error recorded.", "error", msg)
}

// Errors returns the accumulated recoverable errors.
func (e *Engine) Errors() []string { return e.errors }

// Deprecate registers oldName so that invoking it warns, requests an orderly
// exit, and returns zero. Deprecated entry points are intentionally fatal,
// not silently remapped: "discouraged but working" is a different state from
// "removed".
func (e *Engine) Deprecate(oldName, newName string) {
	e.AddFunction(oldName, func([]cty.Value) (cty.Value, error) {
		e.logger.Warn("Deprecated function invoked; requesting exit.", "old", oldName, "use", newName)
		e.met.IncDeprecatedCalls()
		e.RequestExit()
		return cty.Zero, nil
	}, "Deprecated. Use: "+newName)
}

func newDynamicFunction(fn GlobalFunc) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{
			Name:             "args",
			Type:             cty.DynamicPseudoType,
			AllowDynamicType: true,
			AllowNull:        true,
		},
		Type: func([]cty.Value) (cty.Type, error) {
			return cty.DynamicPseudoType, nil
		},
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return fn(args)
		},
	})
}
