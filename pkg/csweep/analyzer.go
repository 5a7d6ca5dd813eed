package csweep

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/715d/csweep/internal/analysis"
	"github.com/715d/csweep/internal/cparse"
	"github.com/715d/csweep/internal/reach"
	"github.com/715d/csweep/pkg/suppress"
)

// AnalyzerOptions holds configuration options for the analyzer.
type AnalyzerOptions struct {
	// Strict reports missing prototypes and removes the implicit-root
	// status of non-static functions in library sweeps.
	Strict bool

	// EntryPoints are sweep roots. main is always included.
	EntryPoints []string

	// Externals are names expected to resolve outside the scanned set.
	Externals []string
}

// Analyzer orchestrates the sweep: parse, suppression, reachability,
// classification.
type Analyzer struct {
	suppressions *suppress.Checker
	opts         AnalyzerOptions
}

// NewAnalyzer creates a new analyzer with the given options.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	return &Analyzer{
		suppressions: suppress.NewChecker(),
		opts:         opts,
	}
}

// Analyze performs the sweep on the given sources and returns the filled
// symbol table.
func (a *Analyzer) Analyze(ctx context.Context, sources []SourceFile) (*analysis.Table, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	// Step 1: Parse all files.
	files, err := a.parseSources(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}

	// Step 2: Load suppression comments.
	a.suppressions.Clear()
	a.suppressions.Load(files)

	// Step 3: Merge parse events into the symbol table.
	table := analysis.NewTable()
	for _, file := range files {
		for _, sym := range file.Symbols {
			table.Record(sym)
		}
	}

	// Step 4: Mark entry points, externals, and libc symbols.
	for _, name := range a.entryPoints() {
		if fi, ok := table.Lookup(name); ok {
			fi.IsEntryPoint = true
		}
	}
	for _, name := range a.opts.Externals {
		if fi, ok := table.Lookup(name); ok {
			fi.IsExternal = true
		}
	}
	table.Range(func(fi *analysis.FuncInfo) bool {
		fi.IsLibc = analysis.IsLibcFunction(fi.Name)
		return true
	})

	// Step 5: Reachability from the roots.
	a.markReachable(table, files)

	// Step 6: Check suppressions on definition sites.
	table.Range(func(fi *analysis.FuncInfo) bool {
		for _, def := range fi.Definitions {
			if ok, _ := a.suppressions.IsSuppressed(def); ok {
				fi.IsSuppressed = true
				break
			}
		}
		return true
	})

	return table, nil
}

// parseSources parses every source file concurrently.
func (a *Analyzer) parseSources(ctx context.Context, sources []SourceFile) ([]*cparse.File, error) {
	// Each goroutine writes to its own index of a pre-sized slice, so no
	// locks are needed; the main goroutine reads only after Wait.
	results := make([]*cparse.File, len(sources))

	var wg errgroup.Group
	wg.SetLimit(runtime.NumCPU())

	for idx, src := range sources {
		wg.Go(func() error {
			// tree-sitter parsers are not safe for concurrent use.
			parser := cparse.NewParser()
			defer parser.Close()

			file, err := parser.Parse(ctx, src.Path, src.Content)
			if err != nil {
				return err
			}
			results[idx] = file
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// markReachable builds the call graph and marks reachable functions.
func (a *Analyzer) markReachable(table *analysis.Table, files []*cparse.File) {
	graph := reach.NewGraph()

	for _, name := range a.entryPoints() {
		graph.AddRoot(name)
	}

	// Library sweeps have no entry point in the scanned set. Non-static
	// functions have external linkage and may be called from outside, so
	// they become roots unless strict mode is on. With an entry point
	// present the sweep is whole-program and everything is analyzed alike.
	if !a.wholeProgram(table) && !a.opts.Strict {
		table.Range(func(fi *analysis.FuncInfo) bool {
			if fi.IsDefined() && !fi.Static {
				graph.AddRoot(fi.Name)
			}
			return true
		})
	}

	for _, file := range files {
		for _, sym := range file.Symbols {
			switch sym.Kind {
			case cparse.KindCall, cparse.KindReference:
				graph.AddEdge(sym.Caller, sym.Name)
			}
		}
	}

	reachable := graph.Reachable()
	table.Range(func(fi *analysis.FuncInfo) bool {
		_, fi.IsReachable = reachable[fi.Name]
		return true
	})
}

// wholeProgram reports whether any entry point has a definition in the
// scanned set.
func (a *Analyzer) wholeProgram(table *analysis.Table) bool {
	for _, name := range a.entryPoints() {
		if fi, ok := table.Lookup(name); ok && fi.IsDefined() {
			return true
		}
	}
	return false
}

func (a *Analyzer) entryPoints() []string {
	entries := []string{"main"}
	for _, name := range a.opts.EntryPoints {
		if name != "" && !slices.Contains(entries, name) {
			entries = append(entries, name)
		}
	}
	return entries
}

// Findings classifies the table into sorted, reportable findings.
func (a *Analyzer) Findings(table *analysis.Table) []Finding {
	wholeProgram := a.wholeProgram(table)

	var findings []Finding
	for _, fi := range table.Sorted() {
		if fi.ShouldReportUnused() {
			findings = append(findings, Finding{
				Name:   fi.Name,
				Kind:   KindUnused,
				Reason: unusedReason(fi, wholeProgram),
				Sites:  append(slices.Clone(fi.Definitions), fi.Prototypes...),
			})
		}

		if fi.ShouldReportUndeclared() {
			findings = append(findings, Finding{
				Name:   fi.Name,
				Kind:   KindUndeclared,
				Reason: "called but never declared",
				Sites:  slices.Clone(fi.Calls),
			})
		}

		if a.opts.Strict && fi.ShouldReportMissingPrototype() {
			findings = append(findings, Finding{
				Name:   fi.Name,
				Kind:   KindMissingPrototype,
				Reason: "defined without a prototype",
				Sites:  slices.Clone(fi.Definitions),
			})
		}
	}
	return findings
}

func unusedReason(fi *analysis.FuncInfo, wholeProgram bool) string {
	switch {
	case fi.Static:
		return "static and unreachable"
	case wholeProgram:
		return "defined but unreachable from any entry point"
	default:
		return "unreachable (strict mode)"
	}
}
