package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/equation"
	"github.com/vk/evogrid/internal/org"
	"github.com/vk/evogrid/internal/trait"
)

type testWorld struct {
	layout   *org.Layout
	builder  *Builder
	reported []string
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	reg := trait.NewRegistry(nil)
	reg.RegisterOwned("fitness", cty.Number, "", cty.Zero)
	reg.RegisterOwned("age", cty.Number, "", cty.Zero)
	reg.RegisterOwned("color", cty.String, "", cty.StringVal(""))
	layout := org.NewLayout(reg.Descriptors())

	w := &testWorld{layout: layout}
	w.builder = &Builder{
		Layout:   layout,
		Compiler: &equation.Compiler{Layout: layout},
		Report:   func(msg string) { w.reported = append(w.reported, msg) },
	}
	return w
}

// collect builds a collection with one organism per row: fitness, age, color.
func (w *testWorld) collect(t *testing.T, rows ...[3]any) *org.Collection {
	t.Helper()
	col := org.NewCollection(w.layout)
	fid, _ := w.layout.ID("fitness")
	aid, _ := w.layout.ID("age")
	cid, _ := w.layout.ID("color")
	for _, row := range rows {
		o := org.NewOrganism(w.layout)
		require.NoError(t, o.SetTrait(fid, org.NumberVal(row[0].(float64))))
		require.NoError(t, o.SetTrait(aid, org.NumberVal(row[1].(float64))))
		require.NoError(t, o.SetTrait(cid, cty.StringVal(row[2].(string))))
		col.Insert(o)
	}
	return col
}

func num(t *testing.T, v cty.Value) float64 {
	t.Helper()
	f, err := org.NumberOf(v)
	require.NoError(t, err)
	return f
}

func TestBuild_NumericModes(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	col := w.collect(t,
		[3]any{3.0, 1.0, "red"},
		[3]any{1.0, 2.0, "blue"},
		[3]any{1.0, 3.0, "red"},
		[3]any{5.0, 4.0, "green"},
	)

	cases := []struct {
		mode string
		want float64
	}{
		{"", 3},         // first organism
		{"2", 1},        // explicit index
		{"min", 1},
		{"max", 5},
		{"min_id", 1},   // first of the tied minima
		{"max_id", 3},
		{"richness", 3}, // {3, 1, 5}
		{"unique", 3},   // alias
		{"dominant", 1}, // 1 appears twice
		{"mean", 2.5},
		{"ave", 2.5},    // alias
		{"median", 2},   // midpoint of 1 and 3
		{"sum", 10},
		{"total", 10},   // alias
		{">=3", 2},
		{"<2", 2},
		{"!=1", 2},
	}
	for _, tc := range cases {
		t.Run("mode "+tc.mode, func(t *testing.T) {
			fn, err := w.builder.Build("fitness", tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, num(t, fn(col)))
		})
	}
}

func TestBuild_StatisticsAreConsistent(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	col := w.collect(t,
		[3]any{2.0, 0.0, "a"},
		[3]any{4.0, 0.0, "a"},
		[3]any{4.0, 0.0, "a"},
		[3]any{6.0, 0.0, "a"},
	)

	eval := func(mode string) float64 {
		fn, err := w.builder.Build("fitness", mode)
		require.NoError(t, err)
		return num(t, fn(col))
	}

	sum, mean := eval("sum"), eval("mean")
	assert.InDelta(t, sum/4, mean, 1e-12, "mean is sum over count")

	variance, stddev := eval("variance"), eval("stddev")
	assert.InDelta(t, variance, stddev*stddev, 1e-12, "stddev squares back to variance")
}

func TestBuild_RichnessIsOrderInvariant(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	forward := w.collect(t, [3]any{1.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"})
	backward := w.collect(t, [3]any{2.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"}, [3]any{1.0, 0.0, "a"})

	fn, err := w.builder.Build("fitness", "richness")
	require.NoError(t, err)
	assert.Equal(t, num(t, fn(forward)), num(t, fn(backward)))
}

func TestBuild_EquationExpressions(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	col := w.collect(t,
		[3]any{2.0, 10.0, "a"},
		[3]any{4.0, 20.0, "a"},
	)

	fn, err := w.builder.Build("fitness + age", "sum")
	require.NoError(t, err)
	assert.Equal(t, 36.0, num(t, fn(col)))

	// Comparison against another trait evaluates per organism.
	fn, err = w.builder.Build("age", ">fitness")
	require.NoError(t, err)
	assert.Equal(t, 2.0, num(t, fn(col)))
}

func TestBuild_Entropy(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)

	fn, err := w.builder.Build("fitness", "entropy")
	require.NoError(t, err)

	uniform := w.collect(t, [3]any{1.0, 0.0, "a"}, [3]any{1.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"})
	assert.InDelta(t, 1.0, num(t, fn(uniform)), 1e-12, "a uniform distribution has maximum normalized entropy")

	constant := w.collect(t, [3]any{7.0, 0.0, "a"}, [3]any{7.0, 0.0, "a"})
	assert.Equal(t, 0.0, num(t, fn(constant)))

	skewed := w.collect(t, [3]any{1.0, 0.0, "a"}, [3]any{1.0, 0.0, "a"}, [3]any{1.0, 0.0, "a"}, [3]any{2.0, 0.0, "a"})
	h := num(t, fn(skewed))
	assert.Greater(t, h, 0.0)
	assert.Less(t, h, 1.0)
}

func TestBuild_MutualInformation(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)

	fn, err := w.builder.Build("fitness", ":age")
	require.NoError(t, err)

	// Identical pairings carry full information about each other.
	dependent := w.collect(t,
		[3]any{1.0, 1.0, "a"}, [3]any{1.0, 1.0, "a"},
		[3]any{2.0, 2.0, "a"}, [3]any{2.0, 2.0, "a"},
	)
	assert.InDelta(t, math.Ln2, num(t, fn(dependent)), 1e-12)

	// A fully crossed pairing carries none.
	independent := w.collect(t,
		[3]any{1.0, 1.0, "a"}, [3]any{1.0, 2.0, "a"},
		[3]any{2.0, 1.0, "a"}, [3]any{2.0, 2.0, "a"},
	)
	assert.InDelta(t, 0.0, num(t, fn(independent)), 1e-12)

	// Pairing a numeric expression with a text trait is also defined.
	fn, err = w.builder.Build("fitness", ":color")
	require.NoError(t, err)
	mixed := w.collect(t, [3]any{1.0, 0.0, "x"}, [3]any{2.0, 0.0, "y"})
	assert.InDelta(t, math.Ln2, num(t, fn(mixed)), 1e-12)
}

func TestBuild_TextFamily(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	col := w.collect(t,
		[3]any{0.0, 0.0, "red"},
		[3]any{0.0, 0.0, "blue"},
		[3]any{0.0, 0.0, "red"},
	)

	t.Run("first and index", func(t *testing.T) {
		fn, err := w.builder.Build("color", "")
		require.NoError(t, err)
		assert.Equal(t, "red", fn(col).AsString())

		fn, err = w.builder.Build("color", "1")
		require.NoError(t, err)
		assert.Equal(t, "blue", fn(col).AsString())
	})

	t.Run("dominant and richness", func(t *testing.T) {
		fn, err := w.builder.Build("color", "dominant")
		require.NoError(t, err)
		assert.Equal(t, "red", fn(col).AsString())

		fn, err = w.builder.Build("color", "richness")
		require.NoError(t, err)
		assert.Equal(t, 2.0, num(t, fn(col)))
	})

	t.Run("lexicographic min and max", func(t *testing.T) {
		fn, err := w.builder.Build("color", "min")
		require.NoError(t, err)
		assert.Equal(t, "blue", fn(col).AsString())

		fn, err = w.builder.Build("color", "max")
		require.NoError(t, err)
		assert.Equal(t, "red", fn(col).AsString())
	})

	t.Run("equality comparison", func(t *testing.T) {
		fn, err := w.builder.Build("color", `=="red"`)
		require.NoError(t, err)
		assert.Equal(t, 2.0, num(t, fn(col)))

		fn, err = w.builder.Build("color", `!="red"`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, num(t, fn(col)))
	})

	t.Run("ordering operators are rejected", func(t *testing.T) {
		_, err := w.builder.Build("color", `<"red"`)
		require.Error(t, err)
	})

	t.Run("numeric statistics are rejected", func(t *testing.T) {
		fn, err := w.builder.Build("color", "mean")
		require.Error(t, err)
		require.NotNil(t, fn, "a failed build still yields a usable function")
		assert.Equal(t, 0.0, num(t, fn(col)), "the neutral default")
	})
}

func TestBuild_ErrorsYieldNeutralDefaults(t *testing.T) {
	t.Parallel()

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()
		w := newTestWorld(t)
		col := w.collect(t, [3]any{1.0, 0.0, "a"})

		fn, err := w.builder.Build("fitness", "bogus")
		require.Error(t, err)
		require.NotNil(t, fn)
		assert.Equal(t, 0.0, num(t, fn(col)))
		require.NotEmpty(t, w.reported)
		assert.Contains(t, w.reported[0], "bogus")
	})

	t.Run("unknown trait", func(t *testing.T) {
		t.Parallel()
		w := newTestWorld(t)
		fn, err := w.builder.Build("velocity", "mean")
		require.Error(t, err)
		require.NotNil(t, fn)
		assert.NotEmpty(t, w.reported)
	})

	t.Run("text literal against numeric expression", func(t *testing.T) {
		t.Parallel()
		w := newTestWorld(t)
		_, err := w.builder.Build("fitness", `=="red"`)
		require.Error(t, err)
	})

	t.Run("index out of range reports at call time", func(t *testing.T) {
		t.Parallel()
		w := newTestWorld(t)
		col := w.collect(t, [3]any{1.0, 0.0, "a"})
		fn, err := w.builder.Build("fitness", "9")
		require.NoError(t, err)
		assert.Equal(t, 0.0, num(t, fn(col)))
		assert.NotEmpty(t, w.reported)
	})
}

func TestBuild_EmptyCollectionDefaults(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	empty := org.NewCollection(w.layout)

	numericModes := []string{"", "min", "max", "mean", "sum", "richness", "entropy", ">=1"}
	for _, mode := range numericModes {
		fn, err := w.builder.Build("fitness", mode)
		require.NoError(t, err, "mode %q", mode)
		assert.Equal(t, 0.0, num(t, fn(empty)), "mode %q", mode)
	}

	fn, err := w.builder.Build("color", "")
	require.NoError(t, err)
	assert.Equal(t, "", fn(empty).AsString())

	assert.Empty(t, w.reported, "empty collections are not errors")
}

func TestBuilder_Default(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t)
	assert.Equal(t, 0.0, num(t, w.builder.Default("fitness", "mean")))
	assert.Equal(t, "", w.builder.Default("color", "").AsString())
	assert.Equal(t, "", w.builder.Default("color", "dominant").AsString())
	assert.Equal(t, 0.0, num(t, w.builder.Default("color", "richness")))
}
