package engine

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// installStdFunctions loads the math and text functions trait equations may
// call. The set is a curated subset of the cty standard library; anything
// beyond it is registered by the binding layer.
func installStdFunctions(e *Engine) {
	std := map[string]function.Function{
		"abs":    stdlib.AbsoluteFunc,
		"ceil":   stdlib.CeilFunc,
		"floor":  stdlib.FloorFunc,
		"log":    stdlib.LogFunc,
		"pow":    stdlib.PowFunc,
		"signum": stdlib.SignumFunc,
		"min":    stdlib.MinFunc,
		"max":    stdlib.MaxFunc,
		"strlen": stdlib.StrlenFunc,
		"substr": stdlib.SubstrFunc,
		"upper":  stdlib.UpperFunc,
		"lower":  stdlib.LowerFunc,
		"format": stdlib.FormatFunc,
	}
	for name, fn := range std {
		e.funcs[name] = fn
		e.descs[name] = "standard function"
	}
}
