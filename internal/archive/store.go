// Package archive persists pre-reset trait values according to each
// descriptor's archive policy. A last-reset policy keeps a single value per
// organism and trait; an all-resets policy keeps the growing ordered record.
package archive

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"
)

// Record is one archived trait value.
type Record struct {
	OrgID string
	Trait string
	Value cty.Value
	Seq   int
}

// Store is the archive surface the birth initializer records into.
type Store interface {
	// RecordReset archives a pre-reset value under the policy's derived name.
	RecordReset(ctx context.Context, orgID, traitName string, value cty.Value, policy trait.Archive) error
	// History returns the ordered archived values for one organism and trait.
	// A last-reset policy yields at most one record.
	History(ctx context.Context, orgID, traitName string) ([]Record, error)
	// Close releases any held resources.
	Close() error
}

// NewStore builds a store of the requested kind. Kind "memory" needs no
// path; kind "sqlite" persists to the file at path.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported archive store kind: %s", kind)
	}
}
