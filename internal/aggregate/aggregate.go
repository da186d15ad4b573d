// Package aggregate turns a trait expression and an aggregation mode into a
// function from an organism collection to a single summary value.
//
// Two result families are supported. When the expression is a bare
// identifier naming a non-numeric trait in the layout, results stay textual;
// otherwise the expression is compiled numerically. Index-selecting modes
// (min_id, max_id) always produce a numeric organism index regardless of
// trait type.
package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/equation"
	"github.com/vk/evogrid/internal/metrics"
	"github.com/vk/evogrid/internal/org"
)

// Func evaluates a built aggregation for one collection. Applying any
// aggregation to an empty collection returns a fixed default rather than an
// error, so reporting pipelines need no special case for empty populations.
type Func func(*org.Collection) cty.Value

// Builder constructs aggregation functions over one layout.
type Builder struct {
	Layout   *org.Layout
	Compiler *equation.Compiler
	Report   func(msg string)
	Metrics  *metrics.Metrics
}

type modeKind int

const (
	modeFirst modeKind = iota
	modeIndex
	modeCompare
	modeRichness
	modeDominant
	modeMin
	modeMax
	modeMinID
	modeMaxID
	modeMean
	modeMedian
	modeVariance
	modeStddev
	modeSum
	modeEntropy
	modeMutualInfo
)

type modeSpec struct {
	kind  modeKind
	index int

	op         string
	rhsNum     float64
	rhsText    string
	rhsIsText  bool
	rhsTrait   string
	rhsIsTrait bool

	otherTrait string
}

// Build compiles exprText under the mode grammar. The returned function is
// always usable: a configuration mistake (unknown mode, malformed operator,
// unknown trait) is reported through the sink and yields a function that
// produces the neutral default, alongside the error for callers that want it.
func (b *Builder) Build(exprText, mode string) (Func, error) {
	textFamily := isIdentifier(exprText) &&
		b.Layout.HasName(exprText) &&
		!b.Layout.IsNumeric(exprText)

	spec, err := b.parseMode(mode, textFamily)
	if err != nil {
		err = fmt.Errorf("trait filter %q for %q: %w", mode, exprText, err)
		b.report(err.Error())
		return b.neutral(spec, textFamily), err
	}

	var fn Func
	if textFamily {
		fn, err = b.buildText(exprText, spec)
	} else {
		fn, err = b.buildNumeric(exprText, spec)
	}
	if err != nil {
		b.report(err.Error())
		return b.neutral(spec, textFamily), err
	}
	b.Metrics.IncSummariesBuilt()
	return fn, nil
}

// Default returns the empty-collection value for exprText under mode without
// building an aggregation. A malformed mode falls back to the first-value
// default; Build is where malformed modes get reported.
func (b *Builder) Default(exprText, mode string) cty.Value {
	textFamily := isIdentifier(exprText) &&
		b.Layout.HasName(exprText) &&
		!b.Layout.IsNumeric(exprText)
	spec, err := b.parseMode(mode, textFamily)
	if err != nil {
		spec = modeSpec{kind: modeFirst}
	}
	return defaultValue(spec, textFamily)
}

func (b *Builder) report(msg string) {
	if b.Report != nil {
		b.Report(msg)
	}
}

// defaultValue is the fixed result for empty collections and failed builds.
func defaultValue(spec modeSpec, textFamily bool) cty.Value {
	if textFamily {
		switch spec.kind {
		case modeFirst, modeIndex, modeDominant, modeMin, modeMax:
			return cty.StringVal("")
		}
	}
	return cty.Zero
}

func (b *Builder) neutral(spec modeSpec, textFamily bool) Func {
	def := defaultValue(spec, textFamily)
	return func(*org.Collection) cty.Value { return def }
}

// parseMode implements the mode grammar.
func (b *Builder) parseMode(mode string, textFamily bool) (modeSpec, error) {
	mode = strings.TrimSpace(mode)

	if mode == "" {
		return modeSpec{kind: modeFirst}, nil
	}
	if isDigits(mode) {
		k, err := strconv.Atoi(mode)
		if err != nil {
			return modeSpec{}, fmt.Errorf("index %q does not parse: %w", mode, err)
		}
		return modeSpec{kind: modeIndex, index: k}, nil
	}
	if strings.HasPrefix(mode, ":") {
		other := strings.TrimSpace(mode[1:])
		if !b.Layout.HasName(other) {
			return modeSpec{}, fmt.Errorf("mutual information partner %q is not in the layout", other)
		}
		return modeSpec{kind: modeMutualInfo, otherTrait: other}, nil
	}
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		if strings.HasPrefix(mode, op) {
			return b.parseComparison(op, strings.TrimSpace(mode[len(op):]), textFamily)
		}
	}

	switch mode {
	case "unique", "richness":
		return modeSpec{kind: modeRichness}, nil
	case "mode", "dom", "dominant":
		return modeSpec{kind: modeDominant}, nil
	case "min":
		return modeSpec{kind: modeMin}, nil
	case "max":
		return modeSpec{kind: modeMax}, nil
	case "min_id":
		return modeSpec{kind: modeMinID}, nil
	case "max_id":
		return modeSpec{kind: modeMaxID}, nil
	case "ave", "mean":
		return modeSpec{kind: modeMean}, nil
	case "median":
		return modeSpec{kind: modeMedian}, nil
	case "variance":
		return modeSpec{kind: modeVariance}, nil
	case "stddev":
		return modeSpec{kind: modeStddev}, nil
	case "sum", "total":
		return modeSpec{kind: modeSum}, nil
	case "entropy":
		return modeSpec{kind: modeEntropy}, nil
	}
	return modeSpec{}, fmt.Errorf("unknown aggregation mode %q", mode)
}

func (b *Builder) parseComparison(op, rhs string, textFamily bool) (modeSpec, error) {
	if rhs == "" {
		return modeSpec{}, fmt.Errorf("comparison %q is missing its right-hand side", op)
	}
	spec := modeSpec{kind: modeCompare, op: op}

	if textFamily && op != "==" && op != "!=" {
		return modeSpec{}, fmt.Errorf("text values cannot be ordered with %q", op)
	}

	if n, err := strconv.ParseFloat(rhs, 64); err == nil {
		if textFamily {
			return modeSpec{}, fmt.Errorf("cannot compare a text trait with numeric literal %q", rhs)
		}
		spec.rhsNum = n
		return spec, nil
	}
	if len(rhs) >= 2 && rhs[0] == '"' && rhs[len(rhs)-1] == '"' {
		spec.rhsText = rhs[1 : len(rhs)-1]
		spec.rhsIsText = true
		return spec, nil
	}
	if b.Layout.HasName(rhs) {
		spec.rhsTrait = rhs
		spec.rhsIsTrait = true
		return spec, nil
	}
	return modeSpec{}, fmt.Errorf("comparison value %q is neither a literal nor a trait name", rhs)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !digit {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
