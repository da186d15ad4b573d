package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	// Exprs are the expressions to evaluate, in order.
	Exprs []string

	// PopSize is the number of organisms seeded into the main population.
	PopSize int
	// Seed drives the pseudo-random trait values of the seeded organisms.
	Seed int64
	// Verbose surfaces through the GET_VERBOSE builtin.
	Verbose bool

	// ArchiveKind selects the trait archive backend: "memory" or "sqlite".
	ArchiveKind string
	// ArchivePath is the database path for the sqlite backend.
	ArchivePath string

	LogFormat  string
	LogLevel   string
	StatusPort int
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Exprs) == 0 {
		return nil, errors.New("at least one expression is required")
	}
	if cfg.PopSize <= 0 {
		cfg.PopSize = 100
	}
	if cfg.ArchiveKind == "" {
		cfg.ArchiveKind = "memory"
	}
	if cfg.ArchiveKind == "sqlite" && cfg.ArchivePath == "" {
		return nil, errors.New("the sqlite archive backend requires an archive path")
	}
	return &cfg, nil
}
