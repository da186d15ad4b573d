package app

import (
	"context"
	"fmt"

	"github.com/vk/evogrid/internal/ctxlog"
)

// Run evaluates the configured expressions in order, printing each result to
// the application's output. A script-requested exit stops the sequence after
// the current expression; accumulated configuration errors are summarized at
// the end.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.StatusPort > 0 {
		a.startStatusServer(a.cfg.StatusPort)
		defer a.closeStatusServer()
	}

	for _, expr := range a.cfg.Exprs {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := a.eng.Execute(a.eng.Preprocess(expr))
		if err != nil {
			a.eng.ReportError(err.Error())
			fmt.Fprintf(a.outW, "%s = <error: %v>\n", expr, err)
		} else {
			fmt.Fprintf(a.outW, "%s = %s\n", expr, out)
		}
		a.control.AdvanceUpdate()

		if a.control.ExitRequested() {
			a.logger.Info("Exit requested by expression, stopping.", "expr", expr)
			break
		}
	}

	if errs := a.eng.Errors(); len(errs) > 0 {
		a.logger.Warn("Run finished with configuration errors.", "count", len(errs))
		for _, msg := range errs {
			fmt.Fprintf(a.outW, "config error: %s\n", msg)
		}
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
