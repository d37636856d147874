package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stateview/internal/config"
	"github.com/roach88/stateview/internal/harness"
	"github.com/roach88/stateview/internal/logging"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory (default <scenarios-dir>/golden)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Backend   string           `json:"backend"`
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against a storage backend.

Each scenario applies its blocks to a fresh, temporary store and checks
every step. When a golden file named after the scenario exists, the trace
must match it byte for byte. The configured storage path is ignored.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  stateview test ./scenarios
  stateview test ./scenarios --backend badger
  stateview test ./scenarios --filter "reorg_*"
  stateview test ./scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("scenarios directory not found: %s", scenariosDir), err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid logging configuration", err)
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInput, "failed to find scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(scenariosDir, "golden")
	}

	r := &scenarioRunner{
		opts:      opts,
		cfg:       cfg,
		logger:    logging.Component(logger, "harness"),
		goldenDir: goldenDir,
		f:         f,
	}

	result := TestResult{
		Backend:   cfg.Storage.Backend,
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	for _, file := range scenarioFiles {
		res := r.run(commandContext(cmd), file)
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.IsJSON() {
		return outputTestJSON(f, result)
	}
	return outputTestText(f, result)
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

type scenarioRunner struct {
	opts      *TestOptions
	cfg       config.Config
	logger    *slog.Logger
	goldenDir string
	f         *OutputFormatter
}

// run executes one scenario file on a fresh temporary store.
func (r *scenarioRunner) run(ctx context.Context, file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return r.report(ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		})
	}

	workDir, err := os.MkdirTemp("", "stateview-scenario-*")
	if err != nil {
		return r.report(ScenarioResult{Name: scenario.Name, Errors: []string{err.Error()}})
	}
	defer os.RemoveAll(workDir)

	h := harness.New(
		harness.WithStorage(scenarioStorage(r.cfg.Storage.Backend, workDir)),
		harness.WithLimits(r.cfg.Limits()),
		harness.WithLogger(r.logger),
	)
	result, err := h.Run(ctx, scenario)
	if err != nil {
		return r.report(ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		})
	}

	res := ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
	if msg := r.checkGolden(scenario.Name, result); msg != "" {
		res.Pass = false
		res.Errors = append(res.Errors, msg)
	}
	return r.report(res)
}

// checkGolden compares or rewrites the golden file of a scenario. It returns
// a failure message, or "" when the trace matches or no golden file exists.
func (r *scenarioRunner) checkGolden(name string, result *harness.Result) string {
	current, err := harness.Snapshot(name, result)
	if err != nil {
		return fmt.Sprintf("failed to marshal trace: %v", err)
	}

	path := filepath.Join(r.goldenDir, name+".golden")
	if r.opts.Update {
		if err := os.MkdirAll(r.goldenDir, 0755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, current, 0644); err != nil {
			return fmt.Sprintf("failed to write golden file: %v", err)
		}
		r.f.VerboseLog("updated %s", path)
		return ""
	}

	golden, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		return fmt.Sprintf("failed to read golden file: %v", err)
	}
	if !bytes.Equal(golden, current) {
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

func (r *scenarioRunner) report(res ScenarioResult) ScenarioResult {
	if r.f.IsJSON() {
		return res
	}
	w := r.f.Writer
	if res.Pass {
		fmt.Fprintf(w, "✓ %s\n", res.Name)
		return res
	}
	fmt.Fprintf(w, "✗ %s\n", res.Name)
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
	}
	return res
}

// scenarioStorage places the backend's files under dir.
func scenarioStorage(backend, dir string) config.StorageConfig {
	switch backend {
	case config.BackendMemory:
		return config.StorageConfig{Backend: backend}
	case config.BackendBadger:
		return config.StorageConfig{Backend: backend, Path: dir}
	default:
		return config.StorageConfig{Backend: backend, Path: filepath.Join(dir, "scenario.db")}
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(f *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := json.NewEncoder(f.Writer).Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(f *OutputFormatter, result TestResult) error {
	w := f.Writer

	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary (%s): %d passed, %d failed, %d total\n",
		result.Backend, result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
