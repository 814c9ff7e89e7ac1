package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spboyer/ifccheck/internal/cache"
	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/projectconfig"
	"github.com/spboyer/ifccheck/internal/reporting"
	"github.com/spboyer/ifccheck/internal/runner"
	"github.com/spboyer/ifccheck/internal/utils"
	"github.com/spboyer/ifccheck/internal/watch"
)

type checkFlags struct {
	rules     []string
	format    string
	output    string
	options   []string
	workers   int
	watch     bool
	uploadURL string
	container string
	noCache   bool
	cacheDir  string
}

func newCheckCommand() *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check [model files or globs...]",
		Short: "Run compliance rules against IFC models",
		Long: `Run compliance rules against one or more IFC models.

Models are .ifc or .ifczip exchange files, or YAML/JSON entity documents.
Globs are expanded, including recursive ** patterns. Without arguments the
models listed in .ifccheck.yaml are checked.

Exit code 0 means every rule passed, 1 means at least one rule failed and
2 means the check could not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCommandE(cmd, args, &f)
		},
	}

	cmd.Flags().StringArrayVarP(&f.rules, "rule", "r", nil, "Rule to run (can be repeated, default: all rules)")
	cmd.Flags().StringVarP(&f.format, "format", "f", projectconfig.DefaultFormat, "Output format: text, json, junit, markdown, html")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringArrayVar(&f.options, "option", nil, "Rule option as key=value (can be repeated)")
	cmd.Flags().IntVar(&f.workers, "workers", projectconfig.DefaultWorkers, "Number of models checked concurrently")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-run the check whenever a model file changes")
	cmd.Flags().StringVar(&f.uploadURL, "upload-url", "", "Azure Blob Storage account URL to publish the JSON report to")
	cmd.Flags().StringVar(&f.container, "container", "", "Blob container for --upload-url (default: "+reporting.DefaultContainer+")")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Disable result caching")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "Cache directory (default: "+projectconfig.DefaultCacheDir+")")

	return cmd
}

// checkSettings is the merged view of flags and project configuration.
type checkSettings struct {
	models    []string
	rules     []string
	options   checks.Options
	format    reporting.Format
	output    string
	workers   int
	cache     *cache.Cache
	uploadURL string
	container string
	cfg       *projectconfig.ProjectConfig
	progress  *progress
}

func checkCommandE(cmd *cobra.Command, args []string, f *checkFlags) error {
	s, err := resolveCheckSettings(cmd, args, f)
	if err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithRules(s.rules...),
		runner.WithOptions(s.options),
		runner.WithWorkers(s.workers),
	}
	if s.cache != nil {
		opts = append(opts, runner.WithCache(s.cache))
	}
	r := runner.New(checks.DefaultRegistry(), opts...)
	s.progress = newProgress(cmd.ErrOrStderr())
	r.OnProgress(s.progress.handle)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !f.watch {
		return checkOnce(ctx, cmd, r, s, s.models)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := checkOnce(ctx, cmd, r, s, s.models); err != nil && !isCheckFailure(err) {
		return err
	}

	w, err := watch.New(s.models, s.cfg.DebounceDuration(), slog.Default())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d model(s) for changes, press Ctrl+C to stop\n", len(s.models)) //nolint:errcheck

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		if err := checkOnce(ctx, cmd, r, s, changed); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err) //nolint:errcheck
		}
	})
}

// checkOnce runs, reports and optionally publishes one check of paths.
func checkOnce(ctx context.Context, cmd *cobra.Command, r *runner.Runner, s *checkSettings, paths []string) error {
	s.progress.start(len(paths))
	report, err := r.Run(ctx, paths)
	s.progress.stop()
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), report, s); err != nil {
		return err
	}
	if s.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", s.output) //nolint:errcheck
	}

	if s.uploadURL != "" {
		p, err := reporting.NewPublisher(s.uploadURL, s.container)
		if err != nil {
			return err
		}
		name, err := p.Publish(ctx, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report published as %s\n", name) //nolint:errcheck
	}

	if !report.Passed() {
		t := report.Totals()
		return &CheckFailureError{
			Message: fmt.Sprintf("check completed with %d failed rule run(s) and %d non-compliant element(s)", t.FailedRuns, t.FailedElems),
		}
	}
	return nil
}

func writeReport(stdout io.Writer, report *runner.Report, s *checkSettings) error {
	if s.output == "" {
		return reporting.Write(stdout, report, s.format)
	}

	if dir := filepath.Dir(s.output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	out, err := os.Create(s.output)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := reporting.Write(out, report, s.format); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return out.Close()
}

func resolveCheckSettings(cmd *cobra.Command, args []string, f *checkFlags) (*checkSettings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}
	cfgDir := cfg.Dir
	if cfgDir == "" {
		cfgDir = wd
	}

	s := &checkSettings{cfg: cfg}

	inputs, baseDir := args, wd
	if len(inputs) == 0 {
		inputs, baseDir = cfg.Models, cfgDir
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no models given: pass model files or list them under 'models' in %s", projectconfig.FileName)
	}
	if s.models, err = collectModels(inputs, baseDir); err != nil {
		return nil, err
	}

	s.rules = f.rules
	if !cmd.Flags().Changed("rule") {
		s.rules = cfg.Rules
	}

	if s.options, err = mergeOptions(cfg.Options, f.options); err != nil {
		return nil, err
	}

	format := f.format
	if !cmd.Flags().Changed("format") {
		format = cfg.Output.Format
	}
	if s.format, err = reporting.ParseFormat(format); err != nil {
		return nil, err
	}

	s.output = f.output
	if !cmd.Flags().Changed("output") && cfg.Output.Path != "" {
		s.output = utils.ResolvePaths([]string{cfg.Output.Path}, cfgDir)[0]
	}

	s.workers = f.workers
	if !cmd.Flags().Changed("workers") {
		s.workers = cfg.Workers
	}
	if s.workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1")
	}

	cacheEnabled := cfg.Cache.Enabled != nil && *cfg.Cache.Enabled
	if cmd.Flags().Changed("cache-dir") {
		cacheEnabled = true
	}
	if cacheEnabled && !f.noCache {
		dir := utils.ResolvePaths([]string{cfg.Cache.Dir}, cfgDir)[0]
		if f.cacheDir != "" {
			dir = utils.ResolvePaths([]string{f.cacheDir}, wd)[0]
		}
		s.cache = cache.New(dir)
	}

	s.uploadURL = f.uploadURL
	if s.uploadURL == "" {
		s.uploadURL = cfg.Publish.URL
	}
	s.container = f.container
	if s.container == "" {
		s.container = cfg.Publish.Container
	}

	return s, nil
}

// collectModels expands inputs. Files matched by a glob are kept only when
// they look like models; literal paths are always kept.
func collectModels(inputs []string, baseDir string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		matches, err := utils.ExpandInputs([]string{in}, baseDir)
		if err != nil {
			return nil, err
		}
		isGlob := strings.ContainsAny(in, "*?[{")
		for _, m := range matches {
			if isGlob && !runner.IsModelFile(m) {
				continue
			}
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no model files matched %s", strings.Join(inputs, ", "))
	}
	return out, nil
}

// mergeOptions overlays key=value flags on the configured options. Values
// are decoded as YAML scalars so "true" and "3" keep their types.
func mergeOptions(base map[string]any, flags []string) (checks.Options, error) {
	opts := make(checks.Options, len(base)+len(flags))
	for k, v := range base {
		opts[k] = v
	}
	for _, kv := range flags {
		key, raw, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --option %q: expected key=value", kv)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		if v == nil && raw != "" {
			v = raw
		}
		opts[key] = v
	}
	return opts, nil
}

func isCheckFailure(err error) bool {
	var cf *CheckFailureError
	return errors.As(err, &cf)
}

func logProgress(e runner.ProgressEvent) {
	switch e.EventType {
	case runner.EventModelStart:
		slog.Debug("Checking model", "model", e.Model, "num", e.ModelNum, "total", e.TotalModels)
	case runner.EventRuleComplete:
		slog.Debug("Rule complete", "model", e.Model, "rule", e.Rule, "passed", e.Passed, "duration", e.Duration)
	case runner.EventRuleCached:
		slog.Debug("Rule cached", "model", e.Model, "rule", e.Rule, "passed", e.Passed)
	case runner.EventModelComplete:
		slog.Debug("Model checked", "model", e.Model, "passed", e.Passed)
	}
}
