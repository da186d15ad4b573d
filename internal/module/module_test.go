package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/org"
)

func TestNew_CapabilitySet(t *testing.T) {
	t.Parallel()

	m := New("eval", CapEvaluate, CapAnalyze, CapEvaluate)
	assert.Equal(t, "eval", m.Name())
	assert.Equal(t, []Capability{CapEvaluate, CapAnalyze}, m.Capabilities(), "duplicates are dropped")
	assert.True(t, m.Has(CapEvaluate))
	assert.False(t, m.Has(CapSelect))
}

func TestModule_ReplicationAndPops(t *testing.T) {
	t.Parallel()

	m := New("place", CapPlacement).
		SetRequireSync().
		SetRequiredPops(2).
		AttachPopulation("main_pop").
		AttachPopulation("next_pop")

	assert.Equal(t, RequireSync, m.Replication())
	assert.Equal(t, "require_sync", m.Replication().String())
	assert.Equal(t, 2, m.RequiredPops())
	require.Len(t, m.Populations(), 2)
	assert.Equal(t, "main_pop", m.Populations()[0].Name)
}

func TestModule_TraitErrorsAccumulate(t *testing.T) {
	t.Parallel()

	m := New("eval", CapEvaluate)
	m.RegisterOwnedTrait("fitness", cty.Number, "", cty.Zero)
	m.RegisterOwnedTrait("fitness", cty.Number, "", cty.Zero)

	require.Len(t, m.Errors(), 1)
	assert.Contains(t, m.Errors()[0], "module eval")
	assert.Contains(t, m.Errors()[0], "duplicate trait")
	assert.Equal(t, 1, m.Traits().Len(), "the first registration wins")
}

// capable implements every capability interface.
type capable struct{}

func (capable) Evaluate(context.Context, *org.Collection) error { return nil }

func (capable) Select(context.Context, *org.Collection) (*org.Collection, error) { return nil, nil }

func (capable) Place(context.Context, *org.Organism, *org.Population) error { return nil }

func (capable) Analyze(context.Context, *org.Collection) error { return nil }

// analyzeOnly implements just the Analyzer interface.
type analyzeOnly struct{}

func (analyzeOnly) Analyze(context.Context, *org.Collection) error { return nil }

func TestCheckCapabilities(t *testing.T) {
	t.Parallel()

	t.Run("full implementation passes", func(t *testing.T) {
		t.Parallel()
		m := New("all", CapEvaluate, CapSelect, CapPlacement, CapAnalyze)
		require.NoError(t, CheckCapabilities(m, capable{}))
		assert.Empty(t, m.Errors())
	})

	t.Run("partial implementation is a configuration error", func(t *testing.T) {
		t.Parallel()
		m := New("mixed", CapEvaluate, CapAnalyze)
		err := CheckCapabilities(m, analyzeOnly{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "evaluate")
		require.Len(t, m.Errors(), 1, "the finding is recorded on the module")
	})

	t.Run("declared subset is enough", func(t *testing.T) {
		t.Parallel()
		m := New("reporter", CapAnalyze)
		require.NoError(t, CheckCapabilities(m, analyzeOnly{}))
	})
}
