package preprocess

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalFunc adapts a function to the Evaluator interface.
type evalFunc func(text string) (string, error)

func (f evalFunc) Execute(text string) (string, error) { return f(text) }

// arithmeticEval resolves the handful of expressions the tests use.
func arithmeticEval(t *testing.T) Evaluator {
	t.Helper()
	return evalFunc(func(text string) (string, error) {
		switch text {
		case "1+1":
			return "2", nil
		case "x":
			return "", errors.New("no variable named x")
		case "name":
			return "world", nil
		default:
			return text, nil
		}
	})
}

func TestPreprocess_Substitution(t *testing.T) {
	t.Parallel()

	p := New(arithmeticEval(t))

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple span", "a${1+1}b", "a2b"},
		{"escaped dollar", "$${x}", "${x}"},
		{"plain text untouched", "no tags here", "no tags here"},
		{"bare dollar is literal", "cost: $5", "cost: $5"},
		{"trailing dollar", "end$", "end$"},
		{"two spans", "${name}-${1+1}", "world-2"},
		{"unbalanced brace left as-is", "a${1+1", "a${1+1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, p.Preprocess(tc.in))
		})
	}
}

func TestPreprocess_NestedBraces(t *testing.T) {
	t.Parallel()

	// The span is the whole brace-balanced region; the evaluator sees the
	// inner braces untouched.
	var seen string
	p := New(evalFunc(func(text string) (string, error) {
		seen = text
		return "R", nil
	}))

	got := p.Preprocess("x${a{b}c}y")
	assert.Equal(t, "xRy", got)
	assert.Equal(t, "a{b}c", seen)
}

func TestPreprocess_EvalErrorKeepsSpanLiteral(t *testing.T) {
	t.Parallel()

	var reported []string
	p := New(arithmeticEval(t), WithErrorSink(func(msg string) { reported = append(reported, msg) }))

	got := p.Preprocess("value=${x}!")
	assert.Equal(t, "value=${x}!", got, "a failing span stays literal")
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0], "no variable named x")
}

func TestPreprocess_ResultsAreNotRescanned(t *testing.T) {
	t.Parallel()

	// The evaluator answers with another tag; a rescan would expand it again.
	p := New(evalFunc(func(string) (string, error) {
		return "${again}", nil
	}))
	assert.Equal(t, "${again}", p.Preprocess("${first}"))
}

func TestPreprocess_DepthGuard(t *testing.T) {
	t.Parallel()

	var overflows int
	var reported []string
	var p *Preprocessor
	// The evaluator re-enters the preprocessor, simulating an expression that
	// asks for more preprocessing.
	p = New(evalFunc(func(text string) (string, error) {
		return p.Preprocess("${" + text + "}"), nil
	}),
		WithMaxDepth(4),
		WithErrorSink(func(msg string) { reported = append(reported, msg) }),
		WithOverflowHook(func() { overflows++ }),
	)

	got := p.Preprocess("${loop}")
	assert.Contains(t, got, "loop", "the unexpanded span survives")
	assert.Equal(t, 1, overflows)
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[0], "depth limit")
}
