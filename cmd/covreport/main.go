package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/format"
	"github.com/wippyai/wasm-coverage/store"
)

func main() {
	var (
		dumpFile    = flag.String("dump", "", "Path to a raw linear-memory dump")
		counterBase = flag.Uint("base", 0, "Counter base offset inside the dump")
		blockCount  = flag.Uint("count", 0, "Number of counters in the dump")
		dbPath      = flag.String("db", "", "Path to a coverage run archive")
		runID       = flag.String("run", "", "Run id to load from the archive")
		list        = flag.Bool("list", false, "List archived runs and exit")
		save        = flag.Bool("save", false, "Archive the report built from -dump")
		formatName  = flag.String("format", "summary", "Output format: lcov, cobertura, html, summary")
		outPath     = flag.String("o", "", "Output file (default stdout)")
		configPath  = flag.String("config", "", "Path to a YAML configuration file")
		interactive = flag.Bool("i", false, "Interactive archive browser (requires -db)")
	)
	flag.Parse()

	if *dumpFile == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: covreport -dump <mem.bin> -base <off> -count <n> [-format lcov|cobertura|html|summary]")
		fmt.Fprintln(os.Stderr, "       covreport -db <runs.db> -run <id> [-format ...]")
		fmt.Fprintln(os.Stderr, "       covreport -db <runs.db> -list")
		fmt.Fprintln(os.Stderr, "       covreport -db <runs.db> -i  (interactive browser)")
		os.Exit(1)
	}

	if *interactive {
		if *dbPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -i requires -db")
			os.Exit(1)
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*dbPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	err := run(runOptions{
		dumpFile:    *dumpFile,
		counterBase: uint32(*counterBase),
		blockCount:  uint32(*blockCount),
		dbPath:      *dbPath,
		runID:       *runID,
		list:        *list,
		save:        *save,
		format:      *formatName,
		outPath:     *outPath,
		configPath:  *configPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	dumpFile    string
	counterBase uint32
	blockCount  uint32
	dbPath      string
	runID       string
	list        bool
	save        bool
	format      string
	outPath     string
	configPath  string
}

func run(opts runOptions) error {
	ctx := context.Background()

	cfg := wasmcoverage.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = wasmcoverage.LoadConfig(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	var db *store.Store
	if opts.dbPath != "" {
		var err error
		if db, err = store.Open(opts.dbPath); err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
	}

	if opts.list {
		return listRuns(ctx, db)
	}

	report, err := resolveReport(ctx, opts, cfg, db)
	if err != nil {
		return err
	}

	if opts.save {
		if db == nil {
			return fmt.Errorf("-save requires -db")
		}
		if err := db.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("archive report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "archived run %s\n", report.RunID)
	}

	return render(report, opts.format, opts.outPath)
}

// resolveReport builds the report either from a raw memory dump or from
// the archive.
func resolveReport(ctx context.Context, opts runOptions, cfg wasmcoverage.Config, db *store.Store) (*cover.Report, error) {
	if opts.dumpFile != "" {
		data, err := os.ReadFile(opts.dumpFile)
		if err != nil {
			return nil, fmt.Errorf("read dump: %w", err)
		}
		view := cover.NewMemoryView(data, opts.counterBase, opts.blockCount)
		counts := view.ReadAllCounters()
		if uint32(len(counts)) < opts.blockCount {
			fmt.Fprintf(os.Stderr, "warning: dump truncated, %d of %d counters present\n", len(counts), opts.blockCount)
		}
		return cover.NewReport(opts.blockCount, counts, nil, true, cfg.Granularity), nil
	}

	if db == nil || opts.runID == "" {
		return nil, fmt.Errorf("either -dump or both -db and -run are required")
	}
	report, err := db.LoadReport(ctx, opts.runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	return report, nil
}

func listRuns(ctx context.Context, db *store.Store) error {
	if db == nil {
		return fmt.Errorf("-list requires -db")
	}
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	for _, r := range runs {
		status := "complete"
		if !r.Complete {
			status = "incomplete"
		}
		fmt.Printf("%s  %s  %s  %5.1f%%  %d/%d blocks  %d tainted  %s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Granularity,
			r.Percent,
			r.Covered, r.TotalBlocks,
			r.Tainted,
			status)
	}
	return nil
}

func render(report *cover.Report, name, outPath string) error {
	var (
		out string
		err error
	)
	switch name {
	case "lcov":
		out = format.LCOV(report, format.Metadata{})
	case "cobertura":
		out, err = format.Cobertura(report, format.Metadata{})
	case "html":
		out, err = format.HTML(report, format.Metadata{})
	case "summary":
		out = format.TerminalSummary(report)
	default:
		return fmt.Errorf("unknown format %q", name)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	if outPath == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
