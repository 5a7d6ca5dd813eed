package csweep

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/csweep/internal/analysis"
)

func sweep(t *testing.T, opts AnalyzerOptions, files map[string]string) (*Analyzer, *analysis.Table) {
	t.Helper()

	var sources []SourceFile
	for path, content := range files {
		sources = append(sources, SourceFile{Path: path, Content: []byte(content)})
	}

	analyzer := NewAnalyzer(opts)
	table, err := analyzer.Analyze(t.Context(), sources)
	require.NoError(t, err)
	return analyzer, table
}

func findingNames(findings []Finding, kind FindingKind) []string {
	var out []string
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f.Name)
		}
	}
	return out
}

func TestAnalyzer_NewAnalyzer(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	require.NotNil(t, analyzer, "NewAnalyzer returned nil")
	require.NotNil(t, analyzer.suppressions, "Expected suppressions to be initialized")
}

func TestAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerOptions{})
	_, err := analyzer.Analyze(t.Context(), nil)
	require.ErrorContains(t, err, "no sources")
}

func TestAnalyzer_BasicUnusedDetection(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
static void helper(void) {}
static void orphan(void) {}

int main(void) {
    helper();
    return 0;
}
`,
	})

	findings := analyzer.Findings(table)
	require.Equal(t, []string{"orphan"}, findingNames(findings, KindUnused))
	require.Empty(t, findingNames(findings, KindUndeclared))

	orphan, ok := table.Lookup("orphan")
	require.True(t, ok)
	require.False(t, orphan.IsReachable)
	require.Equal(t, "static and unreachable", findings[0].Reason)
}

func TestAnalyzer_DeadCycleIsUnused(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
static int ping(int n);
static int pong(int n);

static int ping(int n) { return pong(n - 1); }
static int pong(int n) { return ping(n - 1); }

int main(void) { return 0; }
`,
	})

	findings := analyzer.Findings(table)
	require.ElementsMatch(t, []string{"ping", "pong"}, findingNames(findings, KindUnused))
}

func TestAnalyzer_AddressTakenCallbackIsLive(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
static void on_event(int code) {}
static void register_cb(void (*cb)(int)) { cb(0); }

int main(void) {
    register_cb(on_event);
    return 0;
}
`,
	})

	findings := analyzer.Findings(table)
	require.Empty(t, findings)

	onEvent, ok := table.Lookup("on_event")
	require.True(t, ok)
	require.True(t, onEvent.IsReachable)
}

func TestAnalyzer_ReturnedCallbackIsLive(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
typedef void (*tick_fn)(void);

static void on_tick(void) {}

static tick_fn pick(void) {
    return on_tick;
}

int main(void) {
    pick()();
    return 0;
}
`,
	})

	findings := analyzer.Findings(table)
	require.Empty(t, findings)

	onTick, ok := table.Lookup("on_tick")
	require.True(t, ok)
	require.True(t, onTick.IsReachable)
}

func TestAnalyzer_MacroInvocationIsNotUndeclared(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
#define SQUARE(x) ((x) * (x))

int main(void) {
    return SQUARE(2);
}
`,
	})

	require.Empty(t, analyzer.Findings(table))
}

func TestAnalyzer_UndeclaredCall(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
int main(void) {
    mystery(42);
    return 0;
}
`,
	})

	findings := analyzer.Findings(table)
	require.Equal(t, []string{"mystery"}, findingNames(findings, KindUndeclared))
}

func TestAnalyzer_LibcCallsAreNotUndeclared(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
int main(void) {
    printf("hello\n");
    return 0;
}
`,
	})

	require.Empty(t, analyzer.Findings(table))
}

func TestAnalyzer_ConfiguredExternals(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{Externals: []string{"vendor_init"}}, map[string]string{
		"main.c": `
int main(void) {
    vendor_init();
    return 0;
}
`,
	})

	require.Empty(t, analyzer.Findings(table))
}

func TestAnalyzer_SuppressionComments(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
// nolint:csweep kept for debugging
static void debug_dump(void) {}

static void dead(void) {}

int main(void) { return 0; }
`,
	})

	findings := analyzer.Findings(table)
	require.Equal(t, []string{"dead"}, findingNames(findings, KindUnused))

	dump, ok := table.Lookup("debug_dump")
	require.True(t, ok)
	require.True(t, dump.IsSuppressed)
}

func TestAnalyzer_LibraryModeKeepsExternalLinkageQuiet(t *testing.T) {
	lib := map[string]string{
		"lib.c": `
void api_open(void);
static void internal_helper(void);

void api_open(void) { internal_helper(); }
static void internal_helper(void) {}
static void stale(void) {}
`,
	}

	analyzer, table := sweep(t, AnalyzerOptions{}, lib)
	findings := analyzer.Findings(table)
	require.Equal(t, []string{"stale"}, findingNames(findings, KindUnused))

	// Strict mode removes the implicit-root status of api_open.
	analyzer, table = sweep(t, AnalyzerOptions{Strict: true}, lib)
	findings = analyzer.Findings(table)
	require.ElementsMatch(t, []string{"api_open", "internal_helper", "stale"},
		findingNames(findings, KindUnused))
}

func TestAnalyzer_CustomEntryPoints(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{Strict: true, EntryPoints: []string{"event_loop"}}, map[string]string{
		"lib.c": `
void event_loop(void);
static void tick(void);

void event_loop(void) { tick(); }
static void tick(void) {}
static void stale(void) {}
`,
	})

	findings := analyzer.Findings(table)
	require.Equal(t, []string{"stale"}, findingNames(findings, KindUnused))
}

func TestAnalyzer_MissingPrototypeStrictOnly(t *testing.T) {
	files := map[string]string{
		"main.c": `
int add(int a, int b) { return a + b; }

int main(void) { return add(1, 2); }
`,
	}

	analyzer, table := sweep(t, AnalyzerOptions{}, files)
	require.Empty(t, analyzer.Findings(table))

	analyzer, table = sweep(t, AnalyzerOptions{Strict: true}, files)
	findings := analyzer.Findings(table)
	require.Equal(t, []string{"add"}, findingNames(findings, KindMissingPrototype))
}

func TestAnalyzer_CrossFileResolution(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
#include "util.h"

int main(void) {
    util_run();
    return 0;
}
`,
		"util.h": "void util_run(void);\n",
		"util.c": `
#include "util.h"

void util_run(void) {}
static void leftover(void) {}
`,
	})

	findings := analyzer.Findings(table)
	require.Empty(t, findingNames(findings, KindUndeclared))
	require.Equal(t, []string{"leftover"}, findingNames(findings, KindUnused))
}

func TestAnalyzer_WholeProgramReason(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
void forgotten(void);
void forgotten(void) {}

int main(void) { return 0; }
`,
	})

	findings := analyzer.Findings(table)
	require.Len(t, findings, 1)
	require.Equal(t, KindUnused, findings[0].Kind)
	require.Equal(t, "forgotten", findings[0].Name)
	require.Equal(t, "defined but unreachable from any entry point", findings[0].Reason)
	// Sites carry the definition first, then the prototype.
	require.Len(t, findings[0].Sites, 2)
}

func TestAnalyzer_FindingsAreSortedByName(t *testing.T) {
	analyzer, table := sweep(t, AnalyzerOptions{}, map[string]string{
		"main.c": `
static void zulu(void) {}
static void alpha(void) {}
static void mike(void) {}

int main(void) { return 0; }
`,
	})

	findings := analyzer.Findings(table)
	require.Equal(t, []string{"alpha", "mike", "zulu"}, findingNames(findings, KindUnused))
}
