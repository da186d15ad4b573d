package archive

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"
)

// MemoryStore keeps archived values in process memory. It carries its own
// lock because archive writes happen during reproduction while reporting may
// read histories from the same update.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record // keyed by orgID + "\x00" + derived name
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]Record)}
}

func (s *MemoryStore) RecordReset(_ context.Context, orgID, traitName string, value cty.Value, policy trait.Archive) error {
	key, keep := derivedKey(orgID, traitName, policy)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := Record{OrgID: orgID, Trait: traitName, Value: value}
	if keep {
		rec.Seq = len(s.records[key])
		s.records[key] = append(s.records[key], rec)
	} else {
		s.records[key] = []Record{rec}
	}
	return nil
}

func (s *MemoryStore) History(_ context.Context, orgID, traitName string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, key := range []string{
		storeKey(orgID, trait.AllResetsName(traitName)),
		storeKey(orgID, trait.LastResetName(traitName)),
	} {
		if recs, ok := s.records[key]; ok {
			out = append(out, recs...)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func storeKey(orgID, derived string) string {
	return orgID + "\x00" + derived
}

// derivedKey maps a policy to its derived storage name and whether the
// record list grows. ArchiveAllChanges is reserved; changes cannot yet be
// intercepted, so it archives nothing.
func derivedKey(orgID, traitName string, policy trait.Archive) (string, bool) {
	switch policy {
	case trait.ArchiveLastReset:
		return storeKey(orgID, trait.LastResetName(traitName)), false
	case trait.ArchiveAllResets:
		return storeKey(orgID, trait.AllResetsName(traitName)), true
	default:
		return "", false
	}
}
