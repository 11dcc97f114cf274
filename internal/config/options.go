// Package config holds the creation options for an indexstoredb System,
// loaded with environment-variable overrides the way the teacher's
// internal/config package loads database and index settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Options are the creation options for internal/indexsystem.System (spec
// 4.9's "Create"), grouping store location, ingestion behavior, and
// visibility mode.
type Options struct {
	// StorePath is the directory the raw index store (external collaborator)
	// lives in; IndexDatastore.ListUnits/ReadUnit/ReadRecord are scoped to it.
	StorePath string

	// DatabasePath is the directory internal/store.Database manages (spec
	// 4.1's "dbPath").
	DatabasePath string

	WorkingDir string

	WorkerCount int

	Readonly bool

	EnableOutOfDateFileWatching bool

	WaitUntilDoneInitializing bool

	// UseExplicitOutputUnits turns on internal/visibility's gating (spec
	// 4.7).
	UseExplicitOutputUnits bool
}

// DefaultOptions returns the baseline configuration: four workers,
// out-of-date watching on, explicit-output gating off.
func DefaultOptions() Options {
	return Options{
		WorkerCount:                 4,
		EnableOutOfDateFileWatching: true,
	}
}

// LoadOptionsFromEnv loads Options from environment variables, falling back
// to DefaultOptions for anything unset:
//   - INDEXSTOREDB_STORE_PATH
//   - INDEXSTOREDB_DB_PATH
//   - INDEXSTOREDB_WORKING_DIR
//   - INDEXSTOREDB_WORKER_COUNT
//   - INDEXSTOREDB_READONLY
//   - INDEXSTOREDB_WATCH_OUT_OF_DATE
//   - INDEXSTOREDB_WAIT_INITIALIZING
//   - INDEXSTOREDB_EXPLICIT_OUTPUT_UNITS
func LoadOptionsFromEnv() Options {
	cfg := DefaultOptions()

	if v := os.Getenv("INDEXSTOREDB_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("INDEXSTOREDB_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("INDEXSTOREDB_WORKING_DIR"); v != "" {
		cfg.WorkingDir = v
	}
	if v := os.Getenv("INDEXSTOREDB_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkerCount = n
		} else {
			fmt.Fprintf(os.Stderr, "Warning: invalid INDEXSTOREDB_WORKER_COUNT %q, using %d\n", v, cfg.WorkerCount)
		}
	}
	if v := os.Getenv("INDEXSTOREDB_READONLY"); v != "" {
		cfg.Readonly = parseBool(v)
	}
	if v := os.Getenv("INDEXSTOREDB_WATCH_OUT_OF_DATE"); v != "" {
		cfg.EnableOutOfDateFileWatching = parseBool(v)
	}
	if v := os.Getenv("INDEXSTOREDB_WAIT_INITIALIZING"); v != "" {
		cfg.WaitUntilDoneInitializing = parseBool(v)
	}
	if v := os.Getenv("INDEXSTOREDB_EXPLICIT_OUTPUT_UNITS"); v != "" {
		cfg.UseExplicitOutputUnits = parseBool(v)
	}

	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// String returns a human-readable description, for startup logging.
func (o Options) String() string {
	mode := "read-write"
	if o.Readonly {
		mode = "readonly"
	}
	return fmt.Sprintf("store=%s db=%s workers=%d mode=%s watchOutOfDate=%t explicitOutputUnits=%t",
		o.StorePath, o.DatabasePath, o.WorkerCount, mode, o.EnableOutOfDateFileWatching, o.UseExplicitOutputUnits)
}
