package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/evogrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList accumulates a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ", ") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("evogrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Evogrid - trait queries over a seeded organism population.

Usage:
  evogrid [options] [EXPRESSION ...]

Arguments:
  EXPRESSION
    An expression to evaluate, such as 'CALC_MEAN(main_pop, "fitness")'.
    Positional expressions run after any --eval expressions.

Options:
`)
		flagSet.PrintDefaults()
	}

	var evalFlags stringList
	flagSet.Var(&evalFlags, "eval", "Expression to evaluate. May be repeated.")
	seedFlag := flagSet.Int64("seed", 1, "Random seed for the demonstration population.")
	popSizeFlag := flagSet.Int("pop-size", 100, "Number of organisms to seed.")
	verboseFlag := flagSet.Bool("verbose", false, "Enable verbose script output.")
	archiveFlag := flagSet.String("archive", "memory", "Trait archive backend. Options: 'memory' or 'sqlite'.")
	archivePathFlag := flagSet.String("archive-path", "", "Database path for the sqlite archive backend.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP health/metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	exprs := append([]string(nil), evalFlags...)
	exprs = append(exprs, flagSet.Args()...)
	if len(exprs) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	archiveKind := strings.ToLower(*archiveFlag)
	if archiveKind != "memory" && archiveKind != "sqlite" {
		return nil, false, &ExitError{Code: 2, Message: "invalid archive: must be 'memory' or 'sqlite'"}
	}

	config, err := app.NewConfig(app.Config{
		Exprs:       exprs,
		PopSize:     *popSizeFlag,
		Seed:        *seedFlag,
		Verbose:     *verboseFlag,
		ArchiveKind: archiveKind,
		ArchivePath: *archivePathFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		StatusPort:  *statusPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}
