// Package equation compiles trait expressions into per-organism functions.
// An expression is preprocessed for ${} substitution, parsed once, and closed
// over a trait layout; the returned function evaluates the expression against
// one organism's trait store. Compiled functions hold no mutable state and
// may be invoked concurrently.
package equation

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/evogrid/internal/metrics"
	"github.com/vk/evogrid/internal/org"
)

// Func evaluates a compiled expression for one organism.
type Func func(*org.Organism) (float64, error)

// Compiler builds per-organism functions against a fixed layout. Preprocess
// and Funcs are optional: a nil Preprocess skips template substitution and a
// nil Funcs leaves expressions without callable functions.
type Compiler struct {
	Layout     *org.Layout
	Preprocess func(string) string
	Funcs      map[string]function.Function
	Metrics    *metrics.Metrics
}

// Compile turns exprText into a function from one organism to a numeric
// result. Compilation either fully succeeds or returns a nil function and an
// error; it never returns a partially-applied function.
func (c *Compiler) Compile(exprText string) (Func, error) {
	text := exprText
	if c.Preprocess != nil {
		text = c.Preprocess(text)
	}

	expr, diags := hclsyntax.ParseExpression([]byte(text), "<equation>", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse equation %q: %w", text, diags)
	}

	// Resolve every referenced trait against the layout up front so that a
	// typo fails at compile time, not mid-aggregation.
	refs := rootNames(expr)
	ids := make(map[string]int, len(refs))
	for _, name := range refs {
		id, err := c.Layout.ID(name)
		if err != nil {
			return nil, fmt.Errorf("equation %q: %w", text, err)
		}
		ids[name] = id
	}

	funcs := c.Funcs
	fn := func(o *org.Organism) (float64, error) {
		vars := make(map[string]cty.Value, len(ids))
		for name, id := range ids {
			vars[name] = o.Trait(id)
		}
		v, diags := expr.Value(&hcl.EvalContext{Variables: vars, Functions: funcs})
		if diags.HasErrors() {
			return 0, fmt.Errorf("evaluate equation %q: %w", text, diags)
		}
		return org.NumberOf(v)
	}
	c.Metrics.IncEquationsCompiled()
	return fn, nil
}

// ReferencedTraits returns every trait name the expression depends on,
// sorted and deduplicated, enabling dependency analysis without evaluating
// anything.
func ReferencedTraits(exprText string) ([]string, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(exprText), "<equation>", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse equation %q: %w", exprText, diags)
	}
	return rootNames(expr), nil
}

// rootNames collects the root symbol of every variable traversal in the
// expression, sorted for deterministic output.
func rootNames(expr hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
