// Package trait implements the typed, access-controlled trait metadata model.
// Each simulation module declares the per-organism attributes it works with in
// its own Registry; a Coordinator later validates the union of all registries
// before a run begins.
package trait

import (
	"github.com/zclconf/go-cty/cty"
)

// Access declares which modules may read or write a trait.
type Access int

const (
	AccessUnknown  Access = iota // Access level unknown; most likely a problem.
	AccessOwned                  // This module reads and writes; others read only.
	AccessShared                 // Any module may read and write.
	AccessRequired               // This module reads only; another module must write.
	AccessPrivate                // Only this module may read or write.
)

func (a Access) String() string {
	switch a {
	case AccessOwned:
		return "owned"
	case AccessShared:
		return "shared"
	case AccessRequired:
		return "required"
	case AccessPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// IsWriter reports whether a module holding this access level writes the trait.
func (a Access) IsWriter() bool {
	return a == AccessOwned || a == AccessShared || a == AccessPrivate
}

// Init selects how a trait is initialized in a newly born organism.
// Injected organisms always use the default value.
type Init int

const (
	InitDefault Init = iota // Reset to the descriptor's default value.
	InitParent              // Copy from the first parent.
	InitAverage             // Average across all parents (numeric only).
	InitMinimum             // Lowest across all parents (numeric only).
	InitMaximum             // Highest across all parents (numeric only).
)

func (i Init) String() string {
	switch i {
	case InitParent:
		return "parent"
	case InitAverage:
		return "average"
	case InitMinimum:
		return "minimum"
	case InitMaximum:
		return "maximum"
	default:
		return "default"
	}
}

// Archive selects which older trait values are kept as a run progresses.
type Archive int

const (
	ArchiveNone       Archive = iota // Keep no older information.
	ArchiveLastReset                 // Keep the value at the last reset under "last_<name>".
	ArchiveAllResets                 // Append values at every reset under "archive_<name>".
	ArchiveAllChanges                // Record every change; reserved, changes cannot yet be intercepted.
)

func (a Archive) String() string {
	switch a {
	case ArchiveLastReset:
		return "last_reset"
	case ArchiveAllResets:
		return "all_resets"
	case ArchiveAllChanges:
		return "all_changes"
	default:
		return "none"
	}
}

// LastResetName derives the storage name for a trait's pre-reset value.
func LastResetName(trait string) string { return "last_" + trait }

// AllResetsName derives the storage name for a trait's reset history.
func AllResetsName(trait string) string { return "archive_" + trait }

// Descriptor holds the metadata one module declares for one trait. The value
// type is a cty.Type tag so that access and inheritance logic is written once
// against the tagged union instead of per Go type.
type Descriptor struct {
	name        string
	description string
	typ         cty.Type

	access      Access
	init        Init
	resetParent bool
	archive     Archive

	defaultVal cty.Value
	hasDefault bool
}

// Name returns the trait name, unique within the declaring module's registry.
func (d *Descriptor) Name() string { return d.name }

// Description returns the human-readable description supplied at registration.
func (d *Descriptor) Description() string { return d.description }

// Type returns the declared value type tag.
func (d *Descriptor) Type() cty.Type { return d.typ }

// Access returns the declared access mode.
func (d *Descriptor) Access() Access { return d.access }

// InitPolicy returns how the trait is initialized at birth.
func (d *Descriptor) InitPolicy() Init { return d.init }

// ResetsParent reports whether the parent's value is also reset at birth.
func (d *Descriptor) ResetsParent() bool { return d.resetParent }

// ArchivePolicy returns which older values are retained.
func (d *Descriptor) ArchivePolicy() Archive { return d.archive }

// HasDefault reports whether a default value has been supplied. Presence is
// tracked separately from the type: a descriptor may be declared without a
// default and gain one later.
func (d *Descriptor) HasDefault() bool { return d.hasDefault }

// Default returns the default value, or cty.NilVal when none has been set.
func (d *Descriptor) Default() cty.Value {
	if !d.hasDefault {
		return cty.NilVal
	}
	return d.defaultVal
}

// IsNumeric reports whether the declared type participates in numeric
// inheritance policies and numeric aggregation.
func (d *Descriptor) IsNumeric() bool { return d.typ == cty.Number }

// SetDefault supplies (or replaces) the default value.
func (d *Descriptor) SetDefault(v cty.Value) *Descriptor {
	d.defaultVal = v
	d.hasDefault = true
	return d
}

// SetInheritParent makes offspring copy the first parent's value at birth.
func (d *Descriptor) SetInheritParent() *Descriptor {
	d.init = InitParent
	return d
}

// SetInheritAverage makes offspring average all parents' values at birth.
func (d *Descriptor) SetInheritAverage() *Descriptor {
	d.init = InitAverage
	return d
}

// SetInheritMinimum makes offspring take the lowest parent value at birth.
func (d *Descriptor) SetInheritMinimum() *Descriptor {
	d.init = InitMinimum
	return d
}

// SetInheritMaximum makes offspring take the highest parent value at birth.
func (d *Descriptor) SetInheritMaximum() *Descriptor {
	d.init = InitMaximum
	return d
}

// SetParentReset makes reproduction also reset the parent's own value to the
// computed child value, modeling destructive or shared resources.
func (d *Descriptor) SetParentReset() *Descriptor {
	d.resetParent = true
	return d
}

// SetArchiveLast keeps the pre-reset value under a derived name.
func (d *Descriptor) SetArchiveLast() *Descriptor {
	d.archive = ArchiveLastReset
	return d
}

// SetArchiveAll appends pre-reset values to a growing ordered record.
func (d *Descriptor) SetArchiveAll() *Descriptor {
	d.archive = ArchiveAllResets
	return d
}
