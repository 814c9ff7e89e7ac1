// Package runner loads model files and runs compliance rules against them.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spboyer/ifccheck/internal/cache"
	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/ifc"
)

// DefaultWorkers bounds how many models are checked at once.
const DefaultWorkers = 4

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventModelStart    EventType = "model_start"
	EventModelComplete EventType = "model_complete"
	EventRuleComplete  EventType = "rule_complete"
	EventRuleCached    EventType = "rule_cached"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType   EventType
	Model       string
	ModelNum    int
	TotalModels int
	Rule        string
	Passed      bool
	Duration    time.Duration
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// Runner checks model files against a set of rules.
type Runner struct {
	registry *checks.Registry
	rules    []string
	options  checks.Options
	workers  int
	cache    *cache.Cache
	load     ModelLoader
	now      func() time.Time

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures a Runner.
type Option func(*Runner)

// WithRules selects rules by name. No names selects every registered rule.
func WithRules(names ...string) Option {
	return func(r *Runner) {
		r.rules = names
	}
}

// WithOptions sets the options bag handed to every rule.
func WithOptions(opts checks.Options) Option {
	return func(r *Runner) {
		r.options = opts
	}
}

// WithWorkers bounds model concurrency. Values below one use DefaultWorkers.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithCache enables result caching
func WithCache(c *cache.Cache) Option {
	return func(r *Runner) {
		r.cache = c
	}
}

// WithLoader replaces LoadModel.
func WithLoader(l ModelLoader) Option {
	return func(r *Runner) {
		r.load = l
	}
}

// New creates a runner over the rules in registry.
func New(registry *checks.Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		workers:  DefaultWorkers,
		load:     LoadModel,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = DefaultWorkers
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run checks every path. Models are processed concurrently; the report keeps
// the order of paths. The first load or rule error cancels the run.
func (r *Runner) Run(ctx context.Context, paths []string) (*Report, error) {
	rules, err := r.registry.Select(r.rules)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules selected")
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Timestamp: r.now().UTC(),
		Models:    make([]ModelReport, len(paths)),
	}

	slog.Debug("Starting check run", "runID", report.RunID, "models", len(paths), "rules", len(rules), "workers", r.workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.notifyProgress(ProgressEvent{
				EventType:   EventModelStart,
				Model:       path,
				ModelNum:    i + 1,
				TotalModels: len(paths),
			})

			mr, err := r.checkModel(path, rules, i+1, len(paths))
			if err != nil {
				return err
			}
			report.Models[i] = mr

			r.notifyProgress(ProgressEvent{
				EventType:   EventModelComplete,
				Model:       path,
				ModelNum:    i + 1,
				TotalModels: len(paths),
				Passed:      modelPassed(mr),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// checkModel runs rules against one model. The model is only parsed when at
// least one rule misses the cache.
func (r *Runner) checkModel(path string, rules []checks.ComplianceChecker, num, total int) (ModelReport, error) {
	mr := ModelReport{Path: path, Rules: make([]RuleReport, 0, len(rules))}

	var model ifc.Model
	for _, rule := range rules {
		start := time.Now()
		key := r.cacheKey(path, rule.Name())

		if key != "" {
			if cached, ok := r.cache.Get(key); ok {
				if mr.Schema == "" {
					mr.Schema = cached.Schema
				}
				rr := RuleReport{Rule: rule.Name(), Cached: true, Results: cached.Results}
				mr.Rules = append(mr.Rules, rr)
				r.notifyProgress(ProgressEvent{
					EventType:   EventRuleCached,
					Model:       path,
					ModelNum:    num,
					TotalModels: total,
					Rule:        rule.Name(),
					Passed:      rr.Passed(),
				})
				continue
			}
		}

		if model == nil {
			m, schema, err := r.load(path)
			if err != nil {
				return ModelReport{}, fmt.Errorf("loading %s: %w", path, err)
			}
			model = m
			mr.Schema = schema
		}

		results, err := rule.Check(model, r.options)
		if err != nil {
			return ModelReport{}, fmt.Errorf("running %s on %s: %w", rule.Name(), path, err)
		}

		if key != "" {
			if err := r.cache.Put(key, cache.Entry{Schema: mr.Schema, Results: results}); err != nil {
				slog.Warn("Failed to write cache", "model", path, "rule", rule.Name(), "error", err)
			}
		}

		rr := RuleReport{Rule: rule.Name(), Results: results}
		mr.Rules = append(mr.Rules, rr)
		r.notifyProgress(ProgressEvent{
			EventType:   EventRuleComplete,
			Model:       path,
			ModelNum:    num,
			TotalModels: total,
			Rule:        rule.Name(),
			Passed:      rr.Passed(),
			Duration:    time.Since(start),
		})
	}
	return mr, nil
}

func (r *Runner) cacheKey(path, rule string) string {
	if r.cache == nil {
		return ""
	}
	key, err := cache.CacheKey(path, rule, r.options)
	if err != nil {
		slog.Debug("Skipping cache", "model", path, "rule", rule, "error", err)
		return ""
	}
	return key
}

func modelPassed(mr ModelReport) bool {
	for _, rr := range mr.Rules {
		if !rr.Passed() {
			return false
		}
	}
	return true
}
