// Package main implements the CLI driver for the csweep C function sweeper.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/715d/csweep/internal/analysis"
	"github.com/715d/csweep/internal/config"
	"github.com/715d/csweep/pkg/csweep"
)

// Config holds all command-line configuration options for the sweeper.
type Config struct {
	Paths       []string // the files or directories to sweep
	Recursive   bool     // descend into subdirectories
	Verbose     bool     // enables detailed output and statistics
	JSON        bool     // enables JSON output format
	Strict      bool     // report missing prototypes and unused external-linkage functions
	ConfigFile  string   // explicit .csweep.yaml path
	EntryPoints []string // sweep roots in addition to main
	Extensions  []string // file extensions treated as C sources
	Excludes    []string // directory names skipped during discovery
	Profile     bool     // enables CPU and memory profiling
}

const (
	exitFindings = 1
	exitError    = 2
)

var (
	// Set via ldflags during build.
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var cfg Config

func main() {
	var rootCmd = &cobra.Command{
		Use:   "csweep [paths...]",
		Short: "Find unused and undeclared functions in C code",
		Long: `csweep is a sweeper that parses C sources and headers and reports:

- Functions with a definition that are unreachable from any entry point
- Call sites whose target has no visible prototype or definition
- With --strict: non-static definitions lacking a forward declaration`,
		Example: `  csweep .                           # Sweep the current directory
  csweep -r src include              # Sweep trees recursively
  csweep -v main.c                   # Verbose output for one file
  csweep --json . > report.json      # JSON output to file
  csweep --strict -r .               # Library hygiene mode`,
		Args:               cobra.ArbitraryArgs,
		RunE:               runCommand,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Version:            version,
	}

	// Set custom version template to include build info.
	rootCmd.SetVersionTemplate(fmt.Sprintf("csweep version %s\n  commit: %s\n  built:  %s\n", version, gitCommit, buildTime))

	// Define flags.
	rootCmd.PersistentFlags().BoolVarP(&cfg.Recursive, "recursive", "r", false, "Descend into subdirectories")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&cfg.Strict, "strict", false, "Report missing prototypes and unused external-linkage functions")
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path (default .csweep.yaml when present)")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.EntryPoints, "entry-point", []string{}, "Additional entry point function names")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.Extensions, "ext", []string{}, "File extensions treated as C sources (default .c,.h)")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.Excludes, "exclude", []string{}, "Directory names to skip during discovery")
	rootCmd.PersistentFlags().BoolVar(&cfg.Profile, "profile", false, "Enable CPU and memory profiling (writes cpu.prof and mem.prof to current directory)")

	if err := rootCmd.Execute(); err != nil {
		_ = teardown(nil, nil)
		if err.Error() != "" {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		var cErr *codedError
		if errors.As(err, &cErr) {
			os.Exit(cErr.code)
		}
		os.Exit(exitError)
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		cfg.Paths = args
	} else {
		cfg.Paths = []string{"."}
	}

	slog.Info("starting C function sweep", "paths", cfg.Paths)

	result, err := runSweep(cmd.Context(), &cfg)
	if err != nil {
		return errWithCode(fmt.Errorf("sweep: %w", err), exitError)
	}

	if err := writeResults(result, &cfg); err != nil {
		return errWithCode(fmt.Errorf("format results: %w", err), exitError)
	}

	if len(result.Findings) > 0 {
		return errWithCode(nil, exitFindings)
	}
	return nil
}

// Result represents the sweep output including all findings and
// execution statistics.
type Result struct {
	Findings []csweep.Finding `json:"findings"`
	Stats    struct {
		FilesScanned        int           `json:"files_scanned"`
		TotalFunctions      int           `json:"total_functions"`
		UnusedFunctions     int           `json:"unused_functions"`
		UndeclaredFunctions int           `json:"undeclared_functions"`
		MissingPrototypes   int           `json:"missing_prototypes"`
		SuppressedFunctions int           `json:"suppressed_functions"`
		SweepDuration       time.Duration `json:"sweep_duration"`
	} `json:"stats"`
}

func runSweep(ctx context.Context, cfg *Config) (*Result, error) {
	start := time.Now()

	fileCfg, err := config.LoadOrDefault(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	mergeFlags(fileCfg, cfg)

	slog.Info("loading sources", "paths", cfg.Paths, "recursive", cfg.Recursive)
	sources, err := csweep.LoadSources(ctx, csweep.LoaderOptions{
		Paths:      cfg.Paths,
		Recursive:  cfg.Recursive,
		Extensions: fileCfg.Extensions,
		Exclude:    fileCfg.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	slog.Info("loaded sources", "num", len(sources))

	slog.Info("running sweep")
	analyzer := csweep.NewAnalyzer(csweep.AnalyzerOptions{
		Strict:      fileCfg.Strict,
		EntryPoints: fileCfg.EntryPoints,
		Externals:   fileCfg.Externals,
	})
	table, err := analyzer.Analyze(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("analyze sources: %w", err)
	}
	duration := time.Since(start)
	slog.Info("sweep completed", "dur", duration)

	return convertToResult(analyzer, table, len(sources), duration), nil
}

// mergeFlags layers command-line flags on top of the file config.
func mergeFlags(fileCfg *config.Config, cfg *Config) {
	if cfg.Strict {
		fileCfg.Strict = true
	}
	fileCfg.EntryPoints = append(fileCfg.EntryPoints, cfg.EntryPoints...)
	fileCfg.Exclude = append(fileCfg.Exclude, cfg.Excludes...)
	if len(cfg.Extensions) > 0 {
		fileCfg.Extensions = cfg.Extensions
	}
}

func convertToResult(analyzer *csweep.Analyzer, table *analysis.Table, files int, dur time.Duration) *Result {
	var r Result
	r.Stats.FilesScanned = files
	r.Stats.SweepDuration = dur

	table.Range(func(fi *analysis.FuncInfo) bool {
		if fi.IsDefined() {
			r.Stats.TotalFunctions++
		}
		if fi.IsSuppressed {
			r.Stats.SuppressedFunctions++
		}
		return true
	})

	r.Findings = analyzer.Findings(table)
	for _, f := range r.Findings {
		switch f.Kind {
		case csweep.KindUnused:
			r.Stats.UnusedFunctions++
		case csweep.KindUndeclared:
			r.Stats.UndeclaredFunctions++
		case csweep.KindMissingPrototype:
			r.Stats.MissingPrototypes++
		}
	}

	return &r
}

func writeResults(result *Result, cfg *Config) error {
	var output string
	var err error

	if cfg.JSON {
		output, err = formatJSONOutput(result)
	} else {
		output = formatTextOutput(result, cfg)
	}

	if err != nil {
		return err
	}

	fmt.Print(output)
	return nil
}

func formatJSONOutput(result *Result) (string, error) {
	data, err := json.MarshalIndent(jOutput{
		Findings:  result.Findings,
		Stats:     result.Stats,
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling json output: %w", err)
	}
	return string(data), nil
}

func formatTextOutput(result *Result, cfg *Config) string {
	var output strings.Builder

	if cfg.Verbose {
		slog.Info("",
			"files_scanned", result.Stats.FilesScanned,
			"total_functions", result.Stats.TotalFunctions,
			"unused_functions", result.Stats.UnusedFunctions,
			"undeclared_functions", result.Stats.UndeclaredFunctions,
			"suppressed_functions", result.Stats.SuppressedFunctions,
			"sweep_duration", result.Stats.SweepDuration.String())
	}

	if len(result.Findings) == 0 {
		slog.Info("no findings")
		return output.String()
	}

	for _, f := range result.Findings {
		if len(f.Sites) == 0 {
			output.WriteString(fmt.Sprintf("%s %s (%s)\n", f.Kind, f.Name, f.Reason))
			continue
		}

		// Format: filename:line:column functionName (kind: reason)
		primary := f.Sites[0]
		if !cfg.Verbose {
			// Compact format for non-verbose mode.
			output.WriteString(fmt.Sprintf("%s:%d:%d %s (%s)\n",
				primary.File, primary.Line, primary.Column, f.Name, f.Kind))
		} else {
			output.WriteString(fmt.Sprintf("%s:%d:%d %s (%s: %s)\n",
				primary.File, primary.Line, primary.Column, f.Name, f.Kind, f.Reason))
			for _, site := range f.Sites[1:] {
				output.WriteString(fmt.Sprintf("  -> %s:%d:%d\n", site.File, site.Line, site.Column))
			}
		}
	}

	return output.String()
}

type jOutput struct {
	Findings  []csweep.Finding `json:"findings"`
	Stats     any              `json:"stats"`
	Version   string           `json:"version"`
	Timestamp string           `json:"timestamp"`
}

var cpuProfile *os.File

func setup(_ *cobra.Command, _ []string) error {
	// Disable logger unless verbose flag is set.
	slog.SetDefault(slog.New(slog.DiscardHandler))
	if cfg.Verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if cfg.JSON {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		logger := slog.New(handler)
		slog.SetDefault(logger)
	}

	if !cfg.Profile {
		return nil
	}

	// Start CPU profiling.
	var err error
	cpuProfile, err = os.Create("cpu.prof")
	if err != nil {
		return fmt.Errorf("creating cpu.prof: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuProfile); err != nil {
		_ = cpuProfile.Close()
		return fmt.Errorf("starting CPU profile: %w", err)
	}
	slog.Info("cpu profiling started", "file", "cpu.prof")
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if !cfg.Profile || cpuProfile == nil {
		return nil
	}

	// Stop CPU profiling and close file.
	pprof.StopCPUProfile()
	defer cpuProfile.Close()
	slog.Info("cpu profiling stopped", "file", "cpu.prof")

	// Write memory profile.
	memFile, err := os.Create("mem.prof")
	if err != nil {
		return fmt.Errorf("creating mem.prof: %w", err)
	}
	defer memFile.Close()
	runtime.GC() // Get up-to-date statistics
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	slog.Info("memory profiling completed", "file", "mem.prof")
	return nil
}

func errWithCode(err error, code int) error {
	return &codedError{err: err, code: code}
}

type codedError struct {
	err  error
	code int
}

func (e codedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return ""
}
