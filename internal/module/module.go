// Package module defines the contract every simulation module implements: a
// declared capability set, a replication-timing preference, bound
// populations, a trait registry, and an accumulated configuration error list.
package module

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/trait"
)

// Capability names one part of the evolutionary loop a module implements.
// Capabilities are declared as data; the orchestrator dispatches through the
// matching interface for each declared capability.
type Capability int

const (
	CapEvaluate Capability = iota // Performs evaluation on organisms.
	CapSelect                     // Selects organisms to reproduce.
	CapPlacement                  // Handles offspring placement.
	CapAnalyze                    // Records or evaluates data.
)

func (c Capability) String() string {
	switch c {
	case CapEvaluate:
		return "evaluate"
	case CapSelect:
		return "select"
	case CapPlacement:
		return "placement"
	case CapAnalyze:
		return "analyze"
	default:
		return "unknown"
	}
}

// Replication is a module's replication-timing preference.
type Replication int

const (
	NoPreference Replication = iota
	RequireAsync
	DefaultAsync
	DefaultSync
	RequireSync
)

func (r Replication) String() string {
	switch r {
	case RequireAsync:
		return "require_async"
	case DefaultAsync:
		return "default_async"
	case DefaultSync:
		return "default_sync"
	case RequireSync:
		return "require_sync"
	default:
		return "no_preference"
	}
}

// Module is the per-module state the coordinator manages. It is constructed
// with no traits and no populations; traits are registered during the
// module's own setup phase and populations are attached by the owning
// coordinator. Other modules never mutate a Module directly.
type Module struct {
	name         string
	caps         []Capability
	replication  Replication
	requiredPops int
	pops         []*Pop
	traits       *trait.Registry
	errors       []string
}

// Pop is the binding of one population slot. The module only needs the
// population's identity here; organisms are reached through the shared trait
// store, not through the Module object.
type Pop struct {
	Name string
}

// New creates a module with the given name and declared capability set.
func New(name string, caps ...Capability) *Module {
	m := &Module{
		name: name,
		caps: dedupe(caps),
	}
	m.traits = trait.NewRegistry(func(msg string) {
		m.AddError("module %s: %s", m.name, msg)
	})
	return m
}

// Name returns the module's unique name.
func (m *Module) Name() string { return m.name }

// Capabilities returns the declared capability set in declaration order.
func (m *Module) Capabilities() []Capability { return m.caps }

// Has reports whether the module declares the given capability.
func (m *Module) Has(c Capability) bool {
	for _, have := range m.caps {
		if have == c {
			return true
		}
	}
	return false
}

// Replication returns the replication-timing preference.
func (m *Module) Replication() Replication { return m.replication }

// SetRequireAsync marks the module as requiring asynchronous replication.
func (m *Module) SetRequireAsync() *Module { m.replication = RequireAsync; return m }

// SetDefaultAsync marks the module as preferring asynchronous replication.
func (m *Module) SetDefaultAsync() *Module { m.replication = DefaultAsync; return m }

// SetDefaultSync marks the module as preferring synchronous replication.
func (m *Module) SetDefaultSync() *Module { m.replication = DefaultSync; return m }

// SetRequireSync marks the module as requiring synchronous replication.
func (m *Module) SetRequireSync() *Module { m.replication = RequireSync; return m }

// SetRequiredPops declares how many populations the module must be bound to.
func (m *Module) SetRequiredPops(n int) *Module { m.requiredPops = n; return m }

// RequiredPops returns the declared population requirement.
func (m *Module) RequiredPops() int { return m.requiredPops }

// AttachPopulation binds a population slot. Called by the owning coordinator.
func (m *Module) AttachPopulation(name string) *Module {
	m.pops = append(m.pops, &Pop{Name: name})
	return m
}

// Populations returns the bound population slots.
func (m *Module) Populations() []*Pop { return m.pops }

// Traits returns the module's trait registry.
func (m *Module) Traits() *trait.Registry { return m.traits }

// AddError records a configuration error against this module.
func (m *Module) AddError(format string, args ...any) {
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

// Errors returns the accumulated configuration errors.
func (m *Module) Errors() []string { return m.errors }

// Trait registration conveniences, mirrored from the registry so module
// setup code reads as a chain of intents.

// RegisterOwnedTrait declares a trait this module writes and others may read.
func (m *Module) RegisterOwnedTrait(name string, typ cty.Type, desc string, defaultVal cty.Value) *trait.Descriptor {
	return m.traits.RegisterOwned(name, typ, desc, defaultVal)
}

// RegisterSharedTrait declares a trait any module may read or write.
func (m *Module) RegisterSharedTrait(name string, typ cty.Type, desc string) *trait.Descriptor {
	return m.traits.RegisterShared(name, typ, desc)
}

// RegisterSharedTraitDefault declares a shared trait and supplies its default.
func (m *Module) RegisterSharedTraitDefault(name string, typ cty.Type, desc string, defaultVal cty.Value) *trait.Descriptor {
	return m.traits.RegisterSharedDefault(name, typ, desc, defaultVal)
}

// RegisterRequiredTrait declares a trait some other module must write.
func (m *Module) RegisterRequiredTrait(name string, typ cty.Type, desc string) *trait.Descriptor {
	return m.traits.RegisterRequired(name, typ, desc)
}

// RegisterPrivateTrait declares a trait only this module may touch.
func (m *Module) RegisterPrivateTrait(name string, typ cty.Type, desc string, defaultVal cty.Value) *trait.Descriptor {
	return m.traits.RegisterPrivate(name, typ, desc, defaultVal)
}

func dedupe(caps []Capability) []Capability {
	seen := make(map[Capability]struct{}, len(caps))
	out := make([]Capability, 0, len(caps))
	for _, c := range caps {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
