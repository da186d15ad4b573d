package trait

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ErrorSink receives recoverable configuration errors. Registries never fail
// hard on a bad registration; the owning module accumulates the message and
// the orchestration layer decides later whether the run may start.
type ErrorSink func(msg string)

// Registry is one module's table of declared traits. It is mutated only
// during the module's setup phase and read-only for the rest of the run, so
// it carries no lock.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
	report ErrorSink
}

// NewRegistry creates an empty registry reporting errors into sink. A nil
// sink discards messages; callers that care wire the owning module's error
// list here.
func NewRegistry(sink ErrorSink) *Registry {
	if sink == nil {
		sink = func(string) {}
	}
	return &Registry{
		byName: make(map[string]*Descriptor),
		report: sink,
	}
}

// Register declares a trait with the given access mode, value type, and
// description. A duplicate name is a reported configuration error, not a
// crash: the first registration wins and is returned so that chained
// configuration still has a usable handle.
func (r *Registry) Register(name string, access Access, typ cty.Type, desc string) *Descriptor {
	if existing, ok := r.byName[name]; ok {
		r.report(fmt.Sprintf("duplicate trait named %q", name))
		return existing
	}
	d := &Descriptor{
		name:        name,
		description: desc,
		typ:         typ,
		access:      access,
	}
	r.byName[name] = d
	r.order = append(r.order, name)
	return d
}

// RegisterOwned declares a trait this module writes and others may read.
// Owned traits require a default value at registration time.
func (r *Registry) RegisterOwned(name string, typ cty.Type, desc string, defaultVal cty.Value) *Descriptor {
	return r.Register(name, AccessOwned, typ, desc).SetDefault(defaultVal)
}

// RegisterShared declares a trait any module may read or write. The default
// is optional here; if no module supplies one the coordinator reports it
// before the run starts.
func (r *Registry) RegisterShared(name string, typ cty.Type, desc string) *Descriptor {
	return r.Register(name, AccessShared, typ, desc)
}

// RegisterSharedDefault declares a shared trait and supplies its default.
func (r *Registry) RegisterSharedDefault(name string, typ cty.Type, desc string, defaultVal cty.Value) *Descriptor {
	return r.Register(name, AccessShared, typ, desc).SetDefault(defaultVal)
}

// RegisterRequired declares a trait this module reads but some other module
// must own or share-write.
func (r *Registry) RegisterRequired(name string, typ cty.Type, desc string) *Descriptor {
	return r.Register(name, AccessRequired, typ, desc)
}

// RegisterPrivate declares a trait only this module may touch. Private traits
// require a default value at registration time.
func (r *Registry) RegisterPrivate(name string, typ cty.Type, desc string, defaultVal cty.Value) *Descriptor {
	return r.Register(name, AccessPrivate, typ, desc).SetDefault(defaultVal)
}

// Lookup returns the descriptor for name, if registered.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Len returns the number of registered traits.
func (r *Registry) Len() int { return len(r.order) }

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
