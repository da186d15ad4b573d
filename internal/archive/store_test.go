package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/org"
	"github.com/vk/evogrid/internal/trait"
)

// storeFactories lets the behavioral suite run against both backends.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			t.Helper()
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			t.Helper()
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "archive.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_LastResetKeepsOnlyNewest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)

			require.NoError(t, s.RecordReset(ctx, "org-1", "fitness", org.NumberVal(3), trait.ArchiveLastReset))
			require.NoError(t, s.RecordReset(ctx, "org-1", "fitness", org.NumberVal(8), trait.ArchiveLastReset))

			recs, err := s.History(ctx, "org-1", "fitness")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			f, err := org.NumberOf(recs[0].Value)
			require.NoError(t, err)
			assert.Equal(t, 8.0, f)
		})
	}
}

func TestStore_AllResetsAppendInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)

			for _, v := range []float64{1, 2, 3} {
				require.NoError(t, s.RecordReset(ctx, "org-1", "fitness", org.NumberVal(v), trait.ArchiveAllResets))
			}

			recs, err := s.History(ctx, "org-1", "fitness")
			require.NoError(t, err)
			require.Len(t, recs, 3)
			for i, want := range []float64{1, 2, 3} {
				f, err := org.NumberOf(recs[i].Value)
				require.NoError(t, err)
				assert.Equal(t, want, f)
				assert.Equal(t, i, recs[i].Seq)
			}
		})
	}
}

func TestStore_ArchiveNoneRecordsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)

			require.NoError(t, s.RecordReset(ctx, "org-1", "fitness", org.NumberVal(5), trait.ArchiveNone))
			recs, err := s.History(ctx, "org-1", "fitness")
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestStore_HistoriesAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)

			require.NoError(t, s.RecordReset(ctx, "org-1", "fitness", org.NumberVal(1), trait.ArchiveAllResets))
			require.NoError(t, s.RecordReset(ctx, "org-2", "fitness", org.NumberVal(2), trait.ArchiveAllResets))
			require.NoError(t, s.RecordReset(ctx, "org-1", "genome", cty.StringVal("abc"), trait.ArchiveLastReset))

			recs, err := s.History(ctx, "org-1", "fitness")
			require.NoError(t, err)
			require.Len(t, recs, 1)

			recs, err = s.History(ctx, "org-1", "genome")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "abc", org.TextOf(recs[0].Value))
		})
	}
}

func TestStore_ValueKindsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	values := []cty.Value{
		org.NumberVal(3.25),
		cty.StringVal("hello"),
		cty.True,
		cty.NullVal(cty.Number),
	}

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := factory(t)

			for i, v := range values {
				require.NoError(t, s.RecordReset(ctx, "org-1", "mixed", v, trait.ArchiveAllResets), "value %d", i)
			}
			recs, err := s.History(ctx, "org-1", "mixed")
			require.NoError(t, err)
			require.Len(t, recs, len(values))

			f, err := org.NumberOf(recs[0].Value)
			require.NoError(t, err)
			assert.Equal(t, 3.25, f)
			assert.Equal(t, "hello", org.TextOf(recs[1].Value))
			assert.True(t, recs[2].Value.True())
			assert.True(t, recs[3].Value.IsNull())
		})
	}
}

func TestNewStore_Factory(t *testing.T) {
	t.Parallel()

	s, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore("cassandra", "")
	require.Error(t, err)
}
