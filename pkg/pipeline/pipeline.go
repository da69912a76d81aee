// Package pipeline drives one audit pass over a site:
// walk -> read -> extract -> resolve region -> evaluate -> score, with an
// optional repair step per file.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/siteaudit/pkg/core"
	"github.com/leapstack-labs/siteaudit/pkg/extract"
	"github.com/leapstack-labs/siteaudit/pkg/lint"
	"github.com/leapstack-labs/siteaudit/pkg/lint/site"
	"github.com/leapstack-labs/siteaudit/pkg/region"
	"github.com/leapstack-labs/siteaudit/pkg/repair"
	"github.com/leapstack-labs/siteaudit/pkg/score"
	"github.com/leapstack-labs/siteaudit/pkg/walker"
)

// Repairer is offered every scanned file when set.
type Repairer interface {
	Repair(file *core.FileRecord, r region.Region) (repair.Outcome, error)
}

// Observer receives scan events. *metrics.Metrics satisfies it.
type Observer interface {
	FileScanned()
	Violation(category, rule string)
	FileRepaired()
	FileFailed(op string)
	ObserveScan(d time.Duration)
}

// Options configures a Run.
type Options struct {
	Root         string
	Walker       walker.Options
	Expectations *core.Expectations
	Resolver     *region.Resolver
	Lint         *lint.Config
	Repairer     Repairer
	Workers      int // 1 or less runs sequentially
	Logger       *slog.Logger
	Observer     Observer
}

// FileError records a per-file failure. The batch continues past it.
type FileError struct {
	Path    string `json:"path"`
	Op      string `json:"op"` // "read" or "repair"
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func newFileError(path, op string, err error) *FileError {
	return &FileError{Path: path, Op: op, Message: err.Error(), Err: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// FileResult is everything learned about one page.
type FileResult struct {
	File        string           `json:"file"`
	Region      string           `json:"region"`
	Violations  []core.Violation `json:"violations,omitempty"`
	MarkerScore score.Score      `json:"marker_score"`
	Phones      int              `json:"phones"`
	NavBlocks   int              `json:"nav_blocks"`
	Repair      *repair.Outcome  `json:"repair,omitempty"`
}

// Result is the outcome of one Run.
type Result struct {
	Root           string           `json:"root"`
	Files          []FileResult     `json:"files"`
	Errors         []*FileError     `json:"errors,omitempty"`
	SiteViolations []core.Violation `json:"site_violations,omitempty"`
	BuildScore     score.Score      `json:"build_score"`
	SkippedDirs    int              `json:"skipped_dirs"`
	Duration       time.Duration    `json:"duration"`
}

// Violations returns file and site violations together.
func (r *Result) Violations() []core.Violation {
	out := make([]core.Violation, 0, len(r.SiteViolations))
	for _, f := range r.Files {
		out = append(out, f.Violations...)
	}
	return append(out, r.SiteViolations...)
}

type runner struct {
	opts     Options
	walker   *walker.Walker
	analyzer *lint.Analyzer
	extract  extract.Options
	locks    *keyedMutex
	logger   *slog.Logger
}

type slot struct {
	result *FileResult
	err    *FileError
}

// Run scans the site. A missing root aborts with walker.ErrRootNotFound.
// Cancellation stops between files and returns the partial result along
// with the context error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Expectations == nil {
		exp := core.DefaultExpectations()
		opts.Expectations = &exp
	}
	if opts.Resolver == nil {
		res, err := region.NewResolver(*opts.Expectations)
		if err != nil {
			return nil, err
		}
		opts.Resolver = res
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Walker.Logger == nil {
		opts.Walker.Logger = logger
	}

	w, err := walker.New(opts.Root, opts.Walker)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts:     opts,
		walker:   w,
		analyzer: lint.NewAnalyzer(opts.Lint, opts.Expectations, opts.Resolver),
		extract:  extract.OptionsFrom(*opts.Expectations),
		locks:    newKeyedMutex(),
		logger:   logger,
	}

	start := time.Now()
	var slots []slot
	if opts.Workers > 1 {
		slots, err = r.parallel(ctx)
	} else {
		slots, err = r.sequential(ctx)
	}

	res := &Result{Root: w.Root(), SkippedDirs: w.Skipped()}
	for _, s := range slots {
		if s.err != nil {
			res.Errors = append(res.Errors, s.err)
			observe(opts.Observer).FileFailed(s.err.Op)
		}
		if s.result != nil {
			res.Files = append(res.Files, *s.result)
		}
	}
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	res.SiteViolations = site.NewAnalyzer(opts.Lint).Analyze(&site.Context{
		Root:         w.Root(),
		Expectations: opts.Expectations,
	})
	res.BuildScore = score.BuildSystem(w.Root(), opts.Expectations.BuildArtifacts)
	for _, v := range res.SiteViolations {
		observe(opts.Observer).Violation(string(v.Category), v.RuleID)
	}

	res.Duration = time.Since(start)
	observe(opts.Observer).ObserveScan(res.Duration)
	logger.Debug("scan complete",
		"files", len(res.Files),
		"errors", len(res.Errors),
		"duration", res.Duration)
	return res, nil
}

func (r *runner) sequential(ctx context.Context) ([]slot, error) {
	var slots []slot
	for path := range r.walker.Paths() {
		if err := ctx.Err(); err != nil {
			return slots, err
		}
		slots = append(slots, r.process(path))
	}
	return slots, nil
}

func (r *runner) parallel(ctx context.Context) ([]slot, error) {
	paths := r.walker.Collect()
	slots := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.process(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compact(slots), err
	}
	if err := ctx.Err(); err != nil {
		return compact(slots), err
	}
	return slots, nil
}

func compact(slots []slot) []slot {
	out := slots[:0]
	for _, s := range slots {
		if s.result != nil || s.err != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *runner) process(path string) slot {
	obs := observe(r.opts.Observer)

	file, err := r.walker.Read(path)
	if err != nil {
		r.logger.Warn("failed to read file", "path", path, "error", err)
		return slot{err: newFileError(path, "read", err)}
	}

	facts := extract.Extract(file.Content, r.extract)
	reg := r.opts.Resolver.Resolve(file.RelPath)
	violations := r.analyzer.Evaluate(file, facts, reg)

	res := &FileResult{
		File:        file.RelPath,
		Region:      reg.String(),
		Violations:  violations,
		MarkerScore: score.Markers(facts, r.opts.Expectations.Markers),
		Phones:      len(facts.Phones),
		NavBlocks:   len(facts.Navigation),
	}
	obs.FileScanned()
	for _, v := range violations {
		obs.Violation(string(v.Category), v.RuleID)
	}

	if r.opts.Repairer == nil {
		return slot{result: res}
	}
	return r.repair(path, res, reg)
}

// repair re-reads the file under its physical-path lock so two paths to
// the same file never repair from stale content.
func (r *runner) repair(path string, res *FileResult, reg region.Region) slot {
	unlock := r.locks.Lock(physicalPath(path))
	defer unlock()

	file, err := r.walker.Read(path)
	if err != nil {
		return slot{result: res, err: newFileError(path, "read", err)}
	}

	outcome, err := r.opts.Repairer.Repair(file, reg)
	res.Repair = &outcome
	if err != nil {
		r.logger.Warn("failed to repair file", "path", file.RelPath, "error", err)
		return slot{result: res, err: newFileError(path, "repair", err)}
	}
	if outcome.State == repair.Written {
		observe(r.opts.Observer).FileRepaired()
	}
	return slot{result: res}
}
