package engine

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// ScriptType registers a Go type with the engine so that its values can
// travel through expressions as opaque capsules with named member functions.
type ScriptType struct {
	engine *Engine
	name   string
	desc   string
	typ    cty.Type
}

// AddType registers a script type wrapping the given Go type. goType must be
// the non-pointer struct type; values are wrapped and unwrapped as pointers.
func (e *Engine) AddType(name, desc string, goType reflect.Type) *ScriptType {
	if st, ok := e.types[name]; ok {
		return st
	}
	st := &ScriptType{
		engine: e,
		name:   name,
		desc:   desc,
		typ:    cty.Capsule(name, goType),
	}
	e.types[name] = st
	return st
}

// Type returns the capsule type backing this script type.
func (st *ScriptType) Type() cty.Type { return st.typ }

// Name returns the script-visible type name.
func (st *ScriptType) Name() string { return st.name }

// Wrap encapsulates a pointer to the script type's Go type.
func (st *ScriptType) Wrap(v any) cty.Value {
	return cty.CapsuleVal(st.typ, v)
}

// Unwrap extracts the Go pointer from a capsule of this type.
func (st *ScriptType) Unwrap(v cty.Value) (any, error) {
	if !v.Type().Equals(st.typ) {
		return nil, fmt.Errorf("value is %s, not %s", v.Type().FriendlyName(), st.name)
	}
	return v.EncapsulatedValue(), nil
}

// AddMemberFunction exposes a member function on this script type. Member
// functions surface to expressions as ordinary functions whose first argument
// is the receiver, so NAME(pop, ...) dispatches to the implementation
// registered for pop's type. Several script types may share one member name.
func (st *ScriptType) AddMemberFunction(name string, impl MemberFunc, desc string) *ScriptType {
	e := st.engine
	first := len(e.members[name]) == 0
	e.members[name] = append(e.members[name], memberBinding{typ: st.typ, impl: impl})
	if first {
		e.AddFunction(name, e.memberDispatcher(name), desc)
	}
	return st
}

// memberDispatcher resolves a member call by the capsule type of its first
// argument.
func (e *Engine) memberDispatcher(name string) GlobalFunc {
	return func(args []cty.Value) (cty.Value, error) {
		if len(args) == 0 {
			return cty.NilVal, fmt.Errorf("%s requires a receiver argument", name)
		}
		recv := args[0]
		for _, b := range e.members[name] {
			if recv.Type().Equals(b.typ) {
				return b.impl(recv.EncapsulatedValue(), args[1:])
			}
		}
		return cty.NilVal, fmt.Errorf("%s is not defined for %s", name, recv.Type().FriendlyName())
	}
}
