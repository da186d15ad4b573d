package module

import (
	"context"
	"fmt"

	"github.com/vk/evogrid/internal/org"
)

// Capability interfaces. A module implements whichever of these match its
// declared capability set; the orchestrator dispatches through the interface,
// never through optional overridden methods.

// Evaluator scores organisms, typically writing fitness traits.
type Evaluator interface {
	Evaluate(ctx context.Context, target *org.Collection) error
}

// Selector chooses which organisms reproduce.
type Selector interface {
	Select(ctx context.Context, source *org.Collection) (*org.Collection, error)
}

// Placer decides where an offspring lands.
type Placer interface {
	Place(ctx context.Context, child *org.Organism, dest *org.Population) error
}

// Analyzer records or evaluates data without changing organisms.
type Analyzer interface {
	Analyze(ctx context.Context, source *org.Collection) error
}

// CheckCapabilities verifies that impl provides an interface for every
// capability m declares. A mismatch is recorded on the module as a
// configuration error and returned.
func CheckCapabilities(m *Module, impl any) error {
	var missing []Capability
	for _, c := range m.Capabilities() {
		ok := false
		switch c {
		case CapEvaluate:
			_, ok = impl.(Evaluator)
		case CapSelect:
			_, ok = impl.(Selector)
		case CapPlacement:
			_, ok = impl.(Placer)
		case CapAnalyze:
			_, ok = impl.(Analyzer)
		}
		if !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err := fmt.Errorf("module %s declares capabilities it does not implement: %v", m.Name(), missing)
	m.AddError("%s", err.Error())
	return err
}
