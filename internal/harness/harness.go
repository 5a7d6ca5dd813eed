// Package harness provides testing utilities for the csweep analyzer.
package harness

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/715d/csweep/internal/analysis"
	"github.com/715d/csweep/pkg/csweep"
)

// SweepConfiguration represents a single sweep configuration to test.
type SweepConfiguration struct {
	// Name is a descriptive name for this configuration.
	Name string `yaml:"name"`

	// Recursive enables descending into subdirectories.
	Recursive bool `yaml:"recursive"`

	// Strict enables strict mode.
	Strict bool `yaml:"strict"`

	// EntryPoints are sweep roots in addition to main.
	EntryPoints []string `yaml:"entry_points"`

	// Externals are names expected to resolve outside the scanned set.
	Externals []string `yaml:"externals"`

	// ExpectedFindings lists the findings expected for this configuration.
	ExpectedFindings []ExpectedFinding `yaml:"expected_findings"`

	// ExpectedErrors lists any expected error messages for this configuration.
	ExpectedErrors []string `yaml:"expected_errors"`
}

// TestCase represents a single test scenario.
type TestCase struct {
	// Dir is the directory containing the test code.
	Dir string `yaml:"-"`

	// Archive is an optional txtar file (relative to Dir) holding the C
	// sources; it is unpacked into a temp dir before the sweep.
	Archive string `yaml:"archive,omitempty"`

	// SweepConfigurations defines multiple configurations to test.
	SweepConfigurations []SweepConfiguration `yaml:"sweep_configurations"`
}

// ExpectedFinding represents a finding expected from the sweep.
type ExpectedFinding struct {
	// FuncName is the name of the function.
	FuncName string `yaml:"func"`

	// Kind is the finding kind: unused, undeclared, or missing-prototype.
	Kind string `yaml:"kind"`

	// Reason describes why the finding is expected.
	Reason string `yaml:"reason,omitempty"`

	// File is the optional file path (relative to the case dir).
	File string `yaml:"file,omitempty"`
}

// TestHarness manages test execution.
type TestHarness struct {
	// root is the root directory for test data
	root string
}

// NewHarness creates a new test harness.
func NewHarness(root string) *TestHarness {
	return &TestHarness{root: root}
}

// Run executes a test case with all its sweep configurations.
func (h *TestHarness) Run(t *testing.T, tc *TestCase) *TestResult {
	t.Helper()
	require.NotEmpty(t, tc.SweepConfigurations, "test case has no sweep configurations")

	var results []ConfigurationResult
	var allSuccess = true

	// Run each configuration.
	for _, cfg := range tc.SweepConfigurations {
		cfgResult := h.runConfiguration(t, tc, cfg)
		results = append(results, *cfgResult)
		if !cfgResult.Success {
			allSuccess = false
		}
	}

	// Create overall result message.
	var resultMsg string
	if allSuccess {
		resultMsg = fmt.Sprintf("All %d configurations passed", len(tc.SweepConfigurations))
	} else {
		failedCount := 0
		var msgs []string
		for _, cr := range results {
			if !cr.Success {
				failedCount++
				msgs = append(msgs, fmt.Sprintf("[%s] %s:\n  %s",
					cr.Configuration.Name, cr.Message, strings.Join(cr.Details, "\n")))
			}
		}
		resultMsg = fmt.Sprintf("%d/%d configurations failed:\n%s",
			failedCount, len(tc.SweepConfigurations), strings.Join(msgs, "\n"))
	}

	return &TestResult{
		TestCase:             tc,
		ConfigurationResults: results,
		Success:              allSuccess,
		Message:              resultMsg,
	}
}

// runConfiguration executes a sweep for a single configuration
func (h *TestHarness) runConfiguration(t *testing.T, tc *TestCase, cfg SweepConfiguration) *ConfigurationResult {
	t.Helper()

	dir := filepath.Join(h.root, tc.Dir)
	if tc.Archive != "" {
		dir = UnpackArchive(t, filepath.Join(dir, tc.Archive))
	}

	sources, err := csweep.LoadSources(t.Context(), csweep.LoaderOptions{
		Paths:     []string{dir},
		Recursive: cfg.Recursive,
	})
	if err == nil {
		analyzer := csweep.NewAnalyzer(csweep.AnalyzerOptions{
			Strict:      cfg.Strict,
			EntryPoints: cfg.EntryPoints,
			Externals:   cfg.Externals,
		})
		var table *analysis.Table
		table, err = analyzer.Analyze(t.Context(), sources)
		if err == nil {
			return h.validateConfigurationResults(dir, cfg, analyzer.Findings(table))
		}
	}

	// Check if this error was expected.
	for _, expectedErr := range cfg.ExpectedErrors {
		if strings.Contains(err.Error(), expectedErr) {
			return &ConfigurationResult{
				Configuration: cfg,
				Success:       true,
				Message:       fmt.Sprintf("Got expected error: %v", err),
			}
		}
	}
	require.NoError(t, err)
	return nil
}

// validateConfigurationResults compares actual findings with expected for a configuration
func (h *TestHarness) validateConfigurationResults(dir string, cfg SweepConfiguration, findings []csweep.Finding) *ConfigurationResult {
	cfgResult := ConfigurationResult{
		Configuration: cfg,
		Findings:      findings,
	}

	// First validate the configuration has valid expected findings.
	if err := validateExpectedFindings(cfg.ExpectedFindings); err != nil {
		cfgResult.Success = false
		cfgResult.Message = fmt.Sprintf("Invalid expected.yaml: %v", err)
		cfgResult.Details = []string{err.Error()}
		return &cfgResult
	}

	var actual []ActualFinding
	for _, f := range findings {
		file := ""
		if len(f.Sites) > 0 {
			file = relativeFile(dir, f.Sites[0].File)
		}
		actual = append(actual, ActualFinding{
			Name: f.Name,
			Kind: string(f.Kind),
			File: file,
		})
	}

	validateResults(&cfgResult, cfg.ExpectedFindings, actual)
	return &cfgResult
}

// ConfigurationResult represents the result of running a single sweep configuration.
type ConfigurationResult struct {
	// Configuration is the sweep configuration that was run.
	Configuration SweepConfiguration

	// Findings is the raw result from the analyzer.
	Findings []csweep.Finding

	// Success indicates if this configuration passed.
	Success bool

	// Message provides a summary of the result for this configuration.
	Message string

	// Details provides detailed information about failures for this configuration.
	Details []string
}

// TestResult represents the result of running a test case.
type TestResult struct {
	// TestCase is the test case that was run.
	TestCase *TestCase

	// ConfigurationResults contains results for each sweep configuration.
	ConfigurationResults []ConfigurationResult

	// Success indicates if the test passed (all configurations passed)
	Success bool

	// Skipped indicates if the test was skipped.
	Skipped bool

	// Message provides a summary of the result.
	Message string
}

// ActualFinding is a finding reduced to the fields compared by tests.
type ActualFinding struct {
	Name string
	Kind string
	File string
}

// validateExpectedFindings validates that expected findings have required fields
func validateExpectedFindings(expected []ExpectedFinding) error {
	for i, exp := range expected {
		if strings.TrimSpace(exp.FuncName) == "" {
			return fmt.Errorf("expected finding at index %d has empty or missing 'func' field", i)
		}
		switch exp.Kind {
		case string(csweep.KindUnused), string(csweep.KindUndeclared), string(csweep.KindMissingPrototype):
		default:
			return fmt.Errorf("expected finding %q has unknown kind %q", exp.FuncName, exp.Kind)
		}
	}
	return nil
}

func validateResults(cfgResult *ConfigurationResult, expected []ExpectedFinding, actual []ActualFinding) {
	expectedMap := make(map[string]ExpectedFinding)
	for _, e := range expected {
		expectedMap[e.Kind+":"+e.FuncName] = e
	}

	actualMap := make(map[string]ActualFinding)
	for _, a := range actual {
		actualMap[a.Kind+":"+a.Name] = a
	}

	var details []string
	success := true

	// Check for missing expected findings.
	var missing []string
	for key, exp := range expectedMap {
		if _, found := actualMap[key]; !found {
			missing = append(missing, fmt.Sprintf("%s (%s)", key, exp.Reason))
			success = false
		}
	}

	// Check for unexpected findings.
	var unexpected []string
	for key := range actualMap {
		if _, found := expectedMap[key]; !found {
			unexpected = append(unexpected, key)
			success = false
		}
	}

	// Sort for consistent output.
	sort.Strings(missing)
	sort.Strings(unexpected)

	// Build details.
	if len(missing) > 0 {
		for _, m := range missing {
			details = append(details, "Should have been reported: "+m)
		}
	}

	if len(unexpected) > 0 {
		for _, u := range unexpected {
			details = append(details, "Should not have been reported: "+u)
		}
	}

	for key, exp := range expectedMap {
		if act, found := actualMap[key]; found {
			if exp.File != "" && !strings.HasSuffix(act.File, exp.File) {
				details = append(details, fmt.Sprintf(
					"File mismatch for %s: expected file ending with %q, got %q",
					exp.FuncName, exp.File, act.File))
				success = false
			}
		}
	}

	var message string
	if success {
		message = fmt.Sprintf("All %d expected findings reported", len(expected))
	} else {
		message = fmt.Sprintf("Test failed: %d missing, %d unexpected", len(missing), len(unexpected))
	}

	cfgResult.Success = success
	cfgResult.Message = message
	cfgResult.Details = details
}

// relativeFile extracts the path of a finding site relative to the case dir
func relativeFile(dir, file string) string {
	if file == "" {
		return ""
	}
	relPath, err := filepath.Rel(dir, file)
	if err != nil {
		// If we can't get relative path, just return the base filename.
		return filepath.Base(file)
	}
	return relPath
}
