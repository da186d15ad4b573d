package app

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/evogrid/internal/module"
	"github.com/vk/evogrid/internal/org"
)

// demoModules declares the trait surface of the demonstration run: an
// evaluator that owns the fitness score, a selector that requires it, and an
// analyzer that shares a generation counter.
func demoModules() (eval, sel, anal *module.Module) {
	eval = module.New("genome_eval", module.CapEvaluate)
	eval.RegisterOwnedTrait("genome", cty.String,
		"Genome as a character sequence.", cty.StringVal("")).
		SetInheritParent()
	eval.RegisterOwnedTrait("fitness", cty.Number,
		"Distinct-symbol score of the genome.", cty.Zero).
		SetParentReset().
		SetArchiveLast()

	sel = module.New("elite_select", module.CapSelect)
	sel.RegisterRequiredTrait("fitness", cty.Number,
		"Distinct-symbol score of the genome.")

	anal = module.New("pop_report", module.CapAnalyze)
	anal.RegisterSharedTraitDefault("generation", cty.Number,
		"Update at which the organism was born.", cty.Zero)
	anal.RegisterRequiredTrait("fitness", cty.Number,
		"Distinct-symbol score of the genome.")
	return eval, sel, anal
}

// genomeScorer is the Evaluator behind the genome_eval module: fitness is the
// number of distinct symbols in the genome.
type genomeScorer struct {
	genomeID  int
	fitnessID int
}

func (g *genomeScorer) Evaluate(_ context.Context, target *org.Collection) error {
	for _, o := range target.Orgs() {
		seen := make(map[rune]struct{})
		for _, r := range o.TraitText(g.genomeID) {
			seen[r] = struct{}{}
		}
		if err := o.SetTrait(g.fitnessID, org.NumberVal(float64(len(seen)))); err != nil {
			return err
		}
	}
	return nil
}

// eliteSelector is the Selector behind the elite_select module: it keeps the
// organisms whose fitness matches the collection maximum.
type eliteSelector struct {
	fitnessID int
}

func (s *eliteSelector) Select(_ context.Context, source *org.Collection) (*org.Collection, error) {
	out := org.NewCollection(source.Layout())
	if source.IsEmpty() {
		return out, nil
	}
	best := 0.0
	for i, o := range source.Orgs() {
		f, err := o.TraitNumber(s.fitnessID)
		if err != nil {
			return nil, err
		}
		if i == 0 || f > best {
			best = f
		}
	}
	for _, o := range source.Orgs() {
		f, err := o.TraitNumber(s.fitnessID)
		if err != nil {
			return nil, err
		}
		if f == best {
			out.Insert(o)
		}
	}
	return out, nil
}

// sizeReporter is the Analyzer behind the pop_report module.
type sizeReporter struct {
	logf func(msg string, args ...any)
}

func (r *sizeReporter) Analyze(_ context.Context, source *org.Collection) error {
	r.logf("Population analyzed.", "size", source.Size())
	return nil
}
