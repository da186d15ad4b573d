package trait

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRegistry_DuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	var reported []string
	reg := NewRegistry(func(msg string) { reported = append(reported, msg) })

	first := reg.RegisterOwned("fitness", cty.Number, "Primary score.", cty.Zero)
	second := reg.RegisterOwned("fitness", cty.Number, "Conflicting score.", cty.NumberIntVal(7))

	require.Len(t, reported, 1, "exactly one duplicate error should be reported")
	assert.Contains(t, reported[0], "duplicate trait named \"fitness\"")

	got, ok := reg.Lookup("fitness")
	require.True(t, ok)
	assert.Same(t, first, got, "the first registration must win")
	assert.Equal(t, "Primary score.", got.Description())
	_ = second
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_AccessConstructors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	owned := reg.RegisterOwned("a", cty.Number, "", cty.Zero)
	shared := reg.RegisterShared("b", cty.String, "")
	sharedDef := reg.RegisterSharedDefault("c", cty.String, "", cty.StringVal("x"))
	required := reg.RegisterRequired("d", cty.Number, "")
	private := reg.RegisterPrivate("e", cty.Bool, "", cty.False)

	assert.Equal(t, AccessOwned, owned.Access())
	assert.Equal(t, AccessShared, shared.Access())
	assert.Equal(t, AccessShared, sharedDef.Access())
	assert.Equal(t, AccessRequired, required.Access())
	assert.Equal(t, AccessPrivate, private.Access())

	assert.True(t, owned.HasDefault())
	assert.False(t, shared.HasDefault())
	assert.True(t, sharedDef.HasDefault())
	assert.True(t, private.HasDefault())
}

func TestDescriptor_FluentPolicies(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	d := reg.RegisterOwned("fitness", cty.Number, "", cty.Zero).
		SetInheritAverage().
		SetParentReset().
		SetArchiveAll()

	assert.Equal(t, InitAverage, d.InitPolicy())
	assert.True(t, d.ResetsParent())
	assert.Equal(t, ArchiveAllResets, d.ArchivePolicy())
	assert.True(t, d.IsNumeric())
}

func TestCoordinator_Validate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("agreeing modules pass", func(t *testing.T) {
		t.Parallel()
		owner := NewRegistry(nil)
		owner.RegisterOwned("fitness", cty.Number, "", cty.Zero)
		reader := NewRegistry(nil)
		reader.RegisterRequired("fitness", cty.Number, "")

		c := NewCoordinator()
		c.Declare("eval", owner)
		c.Declare("select", reader)
		require.NoError(t, c.Validate(ctx))
	})

	t.Run("type disagreement is reported", func(t *testing.T) {
		t.Parallel()
		a := NewRegistry(nil)
		a.RegisterOwned("genome", cty.String, "", cty.StringVal(""))
		b := NewRegistry(nil)
		b.RegisterRequired("genome", cty.Number, "")

		c := NewCoordinator()
		c.Declare("mod_a", a)
		c.Declare("mod_b", b)
		err := c.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "genome")
	})

	t.Run("required trait with no writer fails", func(t *testing.T) {
		t.Parallel()
		reader := NewRegistry(nil)
		reader.RegisterRequired("score", cty.Number, "")

		c := NewCoordinator()
		c.Declare("select", reader)
		err := c.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "score")
	})

	t.Run("two owners collide", func(t *testing.T) {
		t.Parallel()
		a := NewRegistry(nil)
		a.RegisterOwned("score", cty.Number, "", cty.Zero)
		b := NewRegistry(nil)
		b.RegisterOwned("score", cty.Number, "", cty.Zero)

		c := NewCoordinator()
		c.Declare("mod_a", a)
		c.Declare("mod_b", b)
		require.Error(t, c.Validate(ctx))
	})

	t.Run("private traits never collide across modules", func(t *testing.T) {
		t.Parallel()
		a := NewRegistry(nil)
		a.RegisterPrivate("scratch", cty.Number, "", cty.Zero)
		b := NewRegistry(nil)
		b.RegisterPrivate("scratch", cty.Number, "", cty.Zero)

		c := NewCoordinator()
		c.Declare("mod_a", a)
		c.Declare("mod_b", b)
		require.NoError(t, c.Validate(ctx))
	})
}
