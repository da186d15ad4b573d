package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/archive"
	"github.com/vk/evogrid/internal/ctxlog"
	"github.com/vk/evogrid/internal/engine"
	"github.com/vk/evogrid/internal/metrics"
	"github.com/vk/evogrid/internal/module"
	"github.com/vk/evogrid/internal/org"
	"github.com/vk/evogrid/internal/script"
	"github.com/vk/evogrid/internal/trait"
)

// App encapsulates the demonstration run: engine, bindings, populations, and
// the archive store.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     *Config
	met     *metrics.Metrics
	promReg *prometheus.Registry

	eng     *engine.Engine
	binder  *script.Binder
	control *runControl
	store   archive.Store

	mainPop *org.Population
	nextPop *org.Population

	httpServer *http.Server
}

// NewApp builds a fully wired App: modules declared and validated, traits
// laid out, population seeded and evaluated, script surface bound.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	promReg := prometheus.NewRegistry()
	met := metrics.New(promReg)
	control := newRunControl(cfg.Seed, cfg.Verbose)

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithMetrics(met),
		engine.WithExitHandler(control.RequestExit),
	)

	evalMod, selMod, analMod := demoModules()
	mods := []*module.Module{evalMod, selMod, analMod}

	coord := trait.NewCoordinator()
	for _, m := range mods {
		coord.Declare(m.Name(), m.Traits())
	}
	if err := coord.Validate(ctx); err != nil {
		return nil, fmt.Errorf("trait validation failed: %w", err)
	}
	logger.Debug("Trait declarations validated.")

	var descriptors []*trait.Descriptor
	for _, m := range mods {
		descriptors = append(descriptors, m.Traits().Descriptors()...)
		for _, msg := range m.Errors() {
			eng.ReportError(msg)
		}
	}
	layout := org.NewLayout(descriptors)

	genomeID, err := layout.ID("genome")
	if err != nil {
		return nil, err
	}
	fitnessID, err := layout.ID("fitness")
	if err != nil {
		return nil, err
	}

	scorer := &genomeScorer{genomeID: genomeID, fitnessID: fitnessID}
	if err := module.CheckCapabilities(evalMod, scorer); err != nil {
		return nil, err
	}
	selector := &eliteSelector{fitnessID: fitnessID}
	if err := module.CheckCapabilities(selMod, selector); err != nil {
		return nil, err
	}
	if err := module.CheckCapabilities(analMod, &sizeReporter{logf: logger.Debug}); err != nil {
		return nil, err
	}
	logger.Debug("Module capabilities verified.", "modules", len(mods))

	store, err := archive.NewStore(cfg.ArchiveKind, cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive store: %w", err)
	}

	mainPop := org.NewPopulation("main_pop", layout)
	nextPop := org.NewPopulation("next_pop", layout)
	seedPopulation(mainPop, genomeID, cfg.PopSize, cfg.Seed)
	if err := scorer.Evaluate(ctx, mainPop.Collect()); err != nil {
		store.Close()
		return nil, fmt.Errorf("evaluate seeded population: %w", err)
	}
	logger.Debug("Population seeded and evaluated.", "size", mainPop.Size())

	binder := script.Bind(eng, control,
		script.WithOutput(outW),
		script.WithMetrics(met),
	)
	binder.RegisterPopulation(mainPop)
	binder.RegisterPopulation(nextPop)

	// SPAWN exercises selection, birth inheritance, and the archive store in
	// one step: elite parents from main_pop produce one child in next_pop.
	eng.AddFunction("SPAWN", func([]cty.Value) (cty.Value, error) {
		parents, err := selector.Select(ctx, mainPop.Collect())
		if err != nil {
			return cty.NilVal, err
		}
		child, err := org.Birth(ctx, layout, parents.Orgs(), store)
		if err != nil {
			return cty.NilVal, err
		}
		if err := nextPop.Inject(child); err != nil {
			return cty.NilVal, err
		}
		return org.NumberVal(float64(nextPop.Size())), nil
	}, "Birth one child from the fittest parents of main_pop into next_pop.")

	return &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		met:     met,
		promReg: promReg,
		eng:     eng,
		binder:  binder,
		control: control,
		store:   store,
		mainPop: mainPop,
		nextPop: nextPop,
	}, nil
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine { return a.eng }

// MainPopulation returns the seeded population. Primarily for testing.
func (a *App) MainPopulation() *org.Population { return a.mainPop }

// Close releases the archive store.
func (a *App) Close() error {
	return a.store.Close()
}

// seedPopulation injects n organisms with pseudo-random genomes derived from
// seed. The same seed always produces the same genomes.
func seedPopulation(pop *org.Population, genomeID, n int, seed int64) {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	const symbols = "abcdefgh"
	for range n {
		o := org.NewOrganism(pop.Layout())
		var sb strings.Builder
		length := 8 + r.IntN(9)
		for range length {
			sb.WriteByte(symbols[r.IntN(len(symbols))])
		}
		// Layout identity is guaranteed, the error path is unreachable here.
		_ = o.SetTrait(genomeID, cty.StringVal(sb.String()))
		_ = pop.Inject(o)
	}
}
