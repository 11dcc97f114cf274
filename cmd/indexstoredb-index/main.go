// indexstoredb-index is a thin CLI driving internal/indexsystem against a
// directory of JSON unit/record fixtures (internal/jsonreader) — a
// reference raw index store for demonstration and local testing, not the
// real compiler-emitted wire format.
package main

import (
	"flag"
	"fmt"
	"os"

	"indexstoredb/internal/config"
	"indexstoredb/internal/indexsystem"
	"indexstoredb/internal/jsonreader"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "version":
		fmt.Printf("indexstoredb-index v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("indexstoredb-index - drives internal/indexsystem against a raw index store")
	fmt.Println()
	fmt.Println("Usage: indexstoredb-index <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  create   Build/refresh the database from a store directory and exit")
	fmt.Println("  query    Look up declaration/definition occurrences by USR")
	fmt.Println("  stats    Print counts of known functions and classes")
	fmt.Println("  version  Print the version")
	fmt.Println()
	fmt.Println("Environment variables (see internal/config):")
	fmt.Println("  INDEXSTOREDB_STORE_PATH, INDEXSTOREDB_DB_PATH, INDEXSTOREDB_WORKING_DIR")
	fmt.Println("  INDEXSTOREDB_WORKER_COUNT, INDEXSTOREDB_READONLY, INDEXSTOREDB_WATCH_OUT_OF_DATE")
}

func openSystem(storePath, dbPath string, readonly bool) (*indexsystem.System, error) {
	opts := config.LoadOptionsFromEnv()
	if storePath != "" {
		opts.StorePath = storePath
	}
	if dbPath != "" {
		opts.DatabasePath = dbPath
	}
	if opts.StorePath == "" || opts.DatabasePath == "" {
		return nil, fmt.Errorf("both -store and -db (or their env vars) are required")
	}
	opts.Readonly = readonly
	opts.WaitUntilDoneInitializing = true
	if opts.WorkingDir == "" {
		opts.WorkingDir = opts.StorePath
	}

	reader := jsonreader.New(opts.StorePath)
	logger := logging.Default("indexstoredb-index")
	return indexsystem.Create(opts, reader, logger)
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	storePath := fs.String("store", "", "raw index store directory (JSON unit/record fixtures)")
	dbPath := fs.String("db", "", "database directory")
	fs.Parse(args)

	sys, err := openSystem(*storePath, *dbPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	fmt.Println("index created and initial scan complete")
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	storePath := fs.String("store", "", "raw index store directory")
	dbPath := fs.String("db", "", "database directory")
	usr := fs.String("usr", "", "USR to look up")
	fs.Parse(args)

	if *usr == "" {
		fmt.Fprintln(os.Stderr, "error: -usr is required")
		os.Exit(1)
	}

	sys, err := openSystem(*storePath, *dbPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	occs, err := sys.CanonicalOccurrencesByUSR(*usr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, occ := range occs {
		fmt.Printf("%s:%d:%d\t%s\n", occ.Location.Path, occ.Location.Line, occ.Location.Column, occ.Symbol.Name)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	storePath := fs.String("store", "", "raw index store directory")
	dbPath := fs.String("db", "", "database directory")
	fs.Parse(args)

	sys, err := openSystem(*storePath, *dbPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer sys.Close()

	functions, _ := sys.SymbolsOfGlobalKind(model.KindFunction)
	classes, _ := sys.SymbolsOfGlobalKind(model.KindClass)
	fmt.Printf("functions: %d\n", len(functions))
	fmt.Printf("classes:   %d\n", len(classes))
}
