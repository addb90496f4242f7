// Package audit runs lighthouse and observatory against a URL and turns the
// results into a terminal report, a stored run and optionally a PDF.
package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wyseguys/site-audit/display"
	"github.com/wyseguys/site-audit/logger"
	"github.com/wyseguys/site-audit/pdf"
	"github.com/wyseguys/site-audit/ratings"
	"github.com/wyseguys/site-audit/report"
	"github.com/wyseguys/site-audit/scanner"
	"github.com/wyseguys/site-audit/storage"
	"github.com/wyseguys/site-audit/target"
	"github.com/wyseguys/site-audit/util"
)

// ErrDisallowed is returned when robots.txt forbids auditing the URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrLocalObservatory is returned for an observatory-only audit of a host
// observatory cannot reach.
var ErrLocalObservatory = errors.New("observatory cannot scan local hosts")

type LighthouseRunner interface {
	Run(ctx context.Context, url string) (*scanner.LighthouseResult, error)
}

type ObservatoryRunner interface {
	Run(ctx context.Context, host string) (*scanner.ObservatoryResult, error)
}

type RobotsGate interface {
	Allowed(ctx context.Context, t *target.Target) (bool, error)
}

type RunStore interface {
	SaveRun(run storage.Run, scores []storage.CategoryScore, rules []storage.RuleResult) error
}

type SnapshotStore interface {
	PutSnapshot(snap storage.Snapshot) error
}

// Runner wires the scanners to the report outputs. Robots, Store, Snapshots
// and PDF are optional.
type Runner struct {
	Lighthouse  LighthouseRunner
	Observatory ObservatoryRunner
	Robots      RobotsGate
	Engine      *report.Engine
	PDF         pdf.Renderer
	Printer     *display.Printer
	Log         *logger.Logger
	Store       RunStore
	Snapshots   SnapshotStore
	Thresholds  ratings.Thresholds

	NewID func() string
	Now   func() time.Time
}

// Options are per-run settings from the command line.
type Options struct {
	PDFDir   string // empty: no PDF
	KeepHTML bool
}

// Result is what one audit produced.
type Result struct {
	RunID       string
	Target      *target.Target
	Kind        report.Kind // after local-host degradation
	Lighthouse  *scanner.LighthouseResult
	Observatory *scanner.ObservatoryResult
	Context     *report.Context
	PDFPath     string
	HTMLPath    string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Runner) log() *logger.Logger {
	if r.Log == nil {
		r.Log = logger.Discard()
	}
	return r.Log
}

// Run audits rawURL with the tools kind selects.
func (r *Runner) Run(ctx context.Context, rawURL string, kind report.Kind, opts Options) (*Result, error) {
	t, err := target.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if _, err := report.VocabularyFor(kind); err != nil {
		return nil, err
	}
	thresholds := r.Thresholds.WithDefaults()

	if r.Robots != nil {
		ok, err := r.Robots.Allowed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w", t.Raw, ErrDisallowed)
		}
	}

	if t.IsLocal() {
		switch kind {
		case report.KindObservatory:
			return nil, fmt.Errorf("%s: %w", t.Host, ErrLocalObservatory)
		case report.KindAll:
			r.warn(fmt.Sprintf("%s is a local host, skipping observatory", t.Host))
			kind = report.KindLighthouse
		}
	}

	res := &Result{RunID: r.newID(), Target: t, Kind: kind}
	started := r.now()
	r.log().Info("Auditing", t.Raw, "with", kind, "run", res.RunID)
	if r.Printer != nil {
		r.Printer.Title(t.Raw, kind)
	}

	if kind == report.KindLighthouse || kind == report.KindAll {
		r.log().Debug("Running lighthouse for", t.Raw)
		res.Lighthouse, err = r.Lighthouse.Run(ctx, t.URL.String())
		if err != nil {
			return nil, fmt.Errorf("lighthouse: %w", err)
		}
		if r.Printer != nil {
			r.Printer.Lighthouse(res.Lighthouse)
		}
	}
	if kind == report.KindObservatory || kind == report.KindAll {
		r.log().Debug("Running observatory for", t.Host)
		res.Observatory, err = r.Observatory.Run(ctx, t.Host)
		if err != nil {
			return nil, fmt.Errorf("observatory: %w", err)
		}
		if r.Printer != nil {
			r.Printer.Observatory(res.Observatory)
		}
	}

	res.Context = BuildContext(t.URL.String(), res.Lighthouse, res.Observatory, thresholds)

	var pdfErr error
	if opts.PDFDir != "" {
		pdfErr = r.writePDF(ctx, res, opts, started)
	}

	r.persist(res, started, thresholds)
	if pdfErr != nil {
		return res, pdfErr
	}
	r.log().Info("Finished audit of", t.Raw)
	return res, nil
}

// RunPages audits each URL in turn. A failed page is logged and the rest
// still run; the failures are returned joined. With several pages, each PDF
// goes into its own page-N directory under opts.PDFDir.
func (r *Runner) RunPages(ctx context.Context, urls []string, kind report.Kind, opts Options) ([]*Result, error) {
	var (
		results []*Result
		errs    []error
	)
	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		pageOpts := opts
		if len(urls) > 1 && opts.PDFDir != "" {
			pageOpts.PDFDir = filepath.Join(opts.PDFDir, fmt.Sprintf("page-%d", i+1))
		}
		res, err := r.Run(ctx, u, kind, pageOpts)
		if err != nil {
			r.log().Error("Audit of", u, "failed:", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Runner) writePDF(ctx context.Context, res *Result, opts Options, at time.Time) error {
	engine := r.Engine
	if engine == nil {
		engine = report.NewEngine(nil)
	}
	html, err := engine.RenderKind(res.Kind, res.Context)
	if err != nil {
		return err
	}
	path, err := util.ReportPath(opts.PDFDir, res.Target.Host, string(res.Kind), at)
	if err != nil {
		return err
	}
	if err := util.EnsureDir(opts.PDFDir); err != nil {
		return fmt.Errorf("create pdf dir: %w", err)
	}
	if opts.KeepHTML {
		res.HTMLPath = pdf.HTMLPath(path)
		if err := os.WriteFile(res.HTMLPath, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	if r.PDF == nil {
		return fmt.Errorf("no pdf renderer configured")
	}
	if err := r.PDF.Render(ctx, html, path); err != nil {
		return err
	}
	res.PDFPath = path
	if r.Printer != nil {
		r.Printer.Saved("PDF", path)
	}
	return nil
}

// persist records the run. Failures are logged; the audit itself succeeded.
func (r *Runner) persist(res *Result, started time.Time, t ratings.Thresholds) {
	run := storage.Run{
		ID:        res.RunID,
		URL:       res.Target.URL.String(),
		Host:      res.Target.Host,
		Kind:      string(res.Kind),
		StartedAt: started,
		PDFPath:   res.PDFPath,
	}
	if res.Observatory != nil {
		run.ObservatoryScore = res.Observatory.Score
		run.ObservatoryGrade = res.Observatory.Grade
	}
	scores := scoreRows(res.Lighthouse, t)

	if r.Store != nil {
		if err := r.Store.SaveRun(run, scores, ruleRows(res.Observatory)); err != nil {
			r.log().Error("Saving run:", err)
		}
	}
	if r.Snapshots != nil {
		err := r.Snapshots.PutSnapshot(storage.Snapshot{
			RunID:            run.ID,
			URL:              run.URL,
			Host:             run.Host,
			Kind:             run.Kind,
			AuditedAt:        started,
			Scores:           scores,
			ObservatoryScore: run.ObservatoryScore,
			ObservatoryGrade: run.ObservatoryGrade,
		})
		if err != nil {
			r.log().Error("Saving snapshot:", err)
		}
	}
}

func (r *Runner) warn(msg string) {
	r.log().Warn(msg)
	if r.Printer != nil {
		r.Printer.Warn(msg)
	}
}
