// Package preprocess implements ${...} template substitution. The enclosed
// expression is handed to the host engine for full evaluation and the
// textual result replaces the span in place. Substitution results are never
// re-scanned, which prevents infinite expansion loops inside one string;
// recursion *through* the engine (an evaluated expression asking for more
// preprocessing) is bounded by a depth guard.
package preprocess

import (
	"strings"
)

// DefaultMaxDepth bounds recursive re-entry through the evaluator. The
// original system had no guard at all; a self-expanding configuration
// expression would recurse without limit, so exceeding the bound here is a
// reported configuration error rather than a stack overflow.
const DefaultMaxDepth = 32

// Evaluator is the host engine surface the preprocessor needs: full
// evaluation of an expression to its textual result.
type Evaluator interface {
	Execute(text string) (string, error)
}

// Preprocessor performs the single left-to-right scan. Each invocation works
// on its own local buffer; only the depth counter is shared, and the
// compilation phases that use it are single-threaded by construction.
type Preprocessor struct {
	eval     Evaluator
	maxDepth int
	depth    int

	report   func(msg string)
	overflow func()
}

// Option adjusts a Preprocessor.
type Option func(*Preprocessor)

// WithMaxDepth overrides the recursion depth guard.
func WithMaxDepth(n int) Option {
	return func(p *Preprocessor) { p.maxDepth = n }
}

// WithErrorSink routes recoverable errors (evaluation failures, depth guard
// trips) to sink instead of discarding them.
func WithErrorSink(sink func(msg string)) Option {
	return func(p *Preprocessor) { p.report = sink }
}

// WithOverflowHook is called once per depth guard trip, for instrumentation.
func WithOverflowHook(hook func()) Option {
	return func(p *Preprocessor) { p.overflow = hook }
}

// New creates a preprocessor evaluating spans through eval.
func New(eval Evaluator, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		eval:     eval,
		maxDepth: DefaultMaxDepth,
		report:   func(string) {},
		overflow: func() {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preprocess scans in for replacement tags and returns the substituted text.
//
// A tag starts with '$': "$$" collapses to one literal '$'; "${" opens an
// evaluated span closed by the matching '}' honoring nested brace pairs; any
// other '$' is literal. An unmatched open brace leaves the remainder of the
// string unchanged so that partial scripts during incremental editing pass
// through untouched.
func (p *Preprocessor) Preprocess(in string) string {
	if p.depth >= p.maxDepth {
		p.overflow()
		p.report("template recursion exceeds depth limit; span left unevaluated")
		return in
	}
	p.depth++
	defer func() { p.depth-- }()

	var out strings.Builder
	for i := 0; i < len(in); i++ {
		if in[i] != '$' {
			out.WriteByte(in[i])
			continue
		}
		if i+2 >= len(in) && !(i+1 < len(in) && in[i+1] == '$') {
			// Not enough room for a replacement tag.
			out.WriteString(in[i:])
			break
		}
		if in[i+1] == '$' {
			out.WriteByte('$')
			i++
			continue
		}
		if in[i+1] != '{' {
			out.WriteByte('$')
			continue
		}

		end := matchBrace(in, i+1)
		if end < 0 {
			// No end brace; keep the rest untouched.
			out.WriteString(in[i:])
			break
		}
		inner := in[i+2 : end]
		replaced, err := p.eval.Execute(inner)
		if err != nil {
			p.report("template expression ${" + inner + "} failed: " + err.Error())
			out.WriteString(in[i : end+1])
		} else {
			out.WriteString(replaced)
		}
		i = end
	}
	return out.String()
}

// matchBrace returns the index of the '}' matching the '{' at open, honoring
// nested brace pairs, or -1 when unbalanced.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
