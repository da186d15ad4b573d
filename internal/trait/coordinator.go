package trait

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/evogrid/internal/ctxlog"
)

// Coordinator owns the union of all modules' registries and validates
// cross-module consistency once, after every module has declared its traits
// and before the run begins. Declaration and validation are two distinct
// phases: modules declare independently, then one global pass checks that
// every shared or required trait name resolves to exactly one type and at
// least one writer.
type Coordinator struct {
	declared map[string][]declaration
	order    []string
}

type declaration struct {
	module string
	desc   *Descriptor
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{declared: make(map[string][]declaration)}
}

// Declare records one module's registry. Call once per module, after that
// module's setup phase has finished registering traits.
func (c *Coordinator) Declare(moduleName string, reg *Registry) {
	for _, d := range reg.Descriptors() {
		if _, seen := c.declared[d.Name()]; !seen {
			c.order = append(c.order, d.Name())
		}
		c.declared[d.Name()] = append(c.declared[d.Name()], declaration{module: moduleName, desc: d})
	}
}

// Validate performs the strict cross-module consistency check and returns a
// single error aggregating every finding, or nil when the configuration is
// coherent.
func (c *Coordinator) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for _, name := range c.order {
		decls := c.declared[name]
		errs = append(errs, c.checkTrait(name, decls)...)
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		logger.Error("Trait validation failed.", "findings", len(errs))
		return errors.New("trait validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	logger.Debug("Trait validation passed.", "traits", len(c.order))
	return nil
}

func (c *Coordinator) checkTrait(name string, decls []declaration) []string {
	var errs []string

	// All declarations of one name must agree on the value type.
	baseType := decls[0].desc.Type()
	for _, d := range decls[1:] {
		if !d.desc.Type().Equals(baseType) {
			errs = append(errs, fmt.Sprintf(
				"trait %q: module %q declares type %s but module %q declares %s",
				name, decls[0].module, baseType.FriendlyName(), d.module, d.desc.Type().FriendlyName()))
		}
	}

	var owners, sharers, required, privates []declaration
	hasDefault := false
	for _, d := range decls {
		switch d.desc.Access() {
		case AccessOwned:
			owners = append(owners, d)
		case AccessShared:
			sharers = append(sharers, d)
		case AccessRequired:
			required = append(required, d)
		case AccessPrivate:
			privates = append(privates, d)
		default:
			errs = append(errs, fmt.Sprintf("trait %q: module %q declares unknown access mode", name, d.module))
		}
		if d.desc.HasDefault() {
			hasDefault = true
		}
	}

	// Private traits may not collide with any other module's declaration.
	if len(privates) > 0 && len(decls) > len(privates) {
		errs = append(errs, fmt.Sprintf(
			"trait %q: declared private by module %q but used by other modules", name, privates[0].module))
	}

	// At most one owner; owned coexists with readers but not other writers.
	if len(owners) > 1 {
		errs = append(errs, fmt.Sprintf("trait %q: owned by more than one module", name))
	}
	if len(owners) > 0 && len(sharers) > 0 {
		errs = append(errs, fmt.Sprintf(
			"trait %q: owned by module %q but also declared shared", name, owners[0].module))
	}

	// Required traits need some other module to write them.
	if len(required) > 0 && len(owners)+len(sharers) == 0 {
		errs = append(errs, fmt.Sprintf(
			"trait %q: required by module %q but no module owns or shares it", name, required[0].module))
	}

	// Shared traits need at least one declared default.
	if len(sharers) > 0 && !hasDefault {
		errs = append(errs, fmt.Sprintf("trait %q: shared but no module supplies a default value", name))
	}

	return errs
}
