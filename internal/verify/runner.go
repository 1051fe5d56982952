// Package verify drives a browser through the repository Settings save flow and
// checks that the Agent Action Required modal and its debug bypass behave.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/acidgreenservers/GitLobster/internal/artifact"
	"github.com/acidgreenservers/GitLobster/internal/browser"
	"github.com/acidgreenservers/GitLobster/internal/report"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

const captureTimeout = 10 * time.Second

// Options configures a verification run.
type Options struct {
	Target          Target
	ExpectedCommand string
	StepTimeout     time.Duration
	ReadyTimeout    time.Duration
	Browser         browser.Config
}

// Outcome summarizes a finished run, passed or failed.
type Outcome struct {
	RunID      string
	TargetURL  string
	Passed     bool
	FailedStep string
	Screenshot string
	Duration   time.Duration
	Results    []report.Result
}

// Runner executes the verification procedure once per Run call.
type Runner struct {
	opts     Options
	store    *artifact.Store
	recorder *report.Recorder
	logger   *slog.Logger

	runID      string
	screenshot string

	openSession func(context.Context, browser.Config) (*browser.Session, error)
	capture     func(context.Context) ([]byte, error)
}

// NewRunner creates a runner writing evidence to store. recorder may be nil.
func NewRunner(opts Options, store *artifact.Store, recorder *report.Recorder) *Runner {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 5 * time.Second
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 8 * time.Second
	}
	if opts.ExpectedCommand == "" {
		opts.ExpectedCommand = "botkit repo update"
	}
	return &Runner{
		opts:        opts,
		store:       store,
		recorder:    recorder,
		logger:      slog.Default(),
		openSession: browser.Open,
		capture:     captureFullPage,
	}
}

func captureFullPage(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// Run performs the full procedure. The browser session is released on every
// exit path. A non-nil error means the run failed; Outcome is populated either way.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	start := time.Now()
	r.runID = uuid.NewString()
	r.screenshot = ""
	out := Outcome{RunID: r.runID}

	targetURL, err := r.opts.Target.URL()
	if err != nil {
		verr := newError(KindNavigation, "", "cannot resolve target", err)
		verr.Step = "resolve-target"
		out.FailedStep = verr.Step
		out.Duration = time.Since(start)
		r.logger.Error("Verification failed", "step", verr.Step, "error", verr)
		return out, verr
	}
	out.TargetURL = targetURL

	for _, name := range []string{artifact.NameSuccess, artifact.NameError} {
		if err := r.store.Remove(name); err != nil {
			r.logger.Debug("stale artifact cleanup failed", "name", name, "error", err)
		}
	}

	r.logger.Info("Starting agent modal verification",
		"run_id", r.runID,
		"target_url", targetURL,
		"addressing", string(r.opts.Target.Addressing),
		"fixture", r.opts.Target.Fixture,
		"expected_command", r.opts.ExpectedCommand,
	)

	session, err := r.openSession(ctx, r.opts.Browser)
	if err != nil {
		out.FailedStep = "launch-browser"
		out.Duration = time.Since(start)
		r.logger.Error("Verification failed", "step", out.FailedStep, "error", err)
		return out, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("browser session close failed", "error", err)
		}
	}()

	pageCtx := session.Context()
	observeConsole(pageCtx, r.logger)

	results, err := r.execute(pageCtx, r.procedure(targetURL, r.opts.Target.Landmark()))
	out.Results = results
	out.Duration = time.Since(start)
	if err != nil {
		step := "unknown"
		if verr, ok := AsError(err); ok {
			step = verr.Step
		}
		out.FailedStep = step
		r.captureFailure(pageCtx, step, targetURL)
		r.logger.Error("Verification failed", "step", step, "error", err, "run_id", r.runID)
		return out, err
	}

	out.Passed = true
	out.Screenshot = r.screenshot
	r.logger.Info("Verification passed",
		"run_id", r.runID,
		"checkpoints", len(results),
		"screenshot", out.Screenshot,
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

// execute runs checkpoints in order and stops at the first failure, which is
// returned classified as a *Error.
func (r *Runner) execute(ctx context.Context, steps []Checkpoint) ([]report.Result, error) {
	results := make([]report.Result, 0, len(steps))
	for i, cp := range steps {
		started := time.Now()
		r.logger.Info("Checkpoint", "step", i+1, "name", cp.Name, "timeout", cp.Timeout)

		stepCtx, cancel := context.WithTimeout(ctx, cp.Timeout)
		err := runAction(stepCtx, cp)
		cancel()

		res := report.Result{
			RunID:      r.runID,
			Step:       i + 1,
			Name:       cp.Name,
			Status:     report.StatusPassed,
			StartedAt:  started.UTC(),
			DurationMS: time.Since(started).Milliseconds(),
		}
		if err != nil {
			verr := classify(cp, err)
			res.Status = report.StatusFailed
			res.ErrorKind = verr.Kind
			res.Reason = verr.Reason
			res.Error = verr.Error()
			results = append(results, res)
			r.record(res)
			return results, verr
		}
		results = append(results, res)
		r.record(res)
	}
	return results, nil
}

// runAction turns a panicking action into an ordinary checkpoint failure.
func runAction(ctx context.Context, cp Checkpoint) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("checkpoint panicked: %v", p)
		}
	}()
	return cp.Action(ctx)
}

func classify(cp Checkpoint, err error) *Error {
	if verr, ok := AsError(err); ok {
		if verr.Step == "" {
			verr.Step = cp.Name
		}
		return verr
	}
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		err = fmt.Errorf("not satisfied within %s: %w", cp.Timeout, err)
	} else if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", cp.Timeout, err)
	}
	kind := cp.Kind
	if kind == "" {
		kind = KindAssertion
	}
	verr := newError(kind, cp.Reason, cp.Failure, err)
	verr.Step = cp.Name
	return verr
}

func (r *Runner) record(res report.Result) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(res); err != nil {
		r.logger.Warn("checkpoint record failed", "step", res.Name, "error", err)
	}
}

func (r *Runner) saveScreenshot(ctx context.Context, name, step, targetURL string) (string, error) {
	data, err := r.capture(ctx)
	if err != nil {
		return "", err
	}
	return r.store.Save(artifact.Meta{
		RunID:     r.runID,
		Name:      name,
		Format:    "png",
		Step:      step,
		URL:       targetURL,
		CreatedAt: time.Now().UTC(),
	}, data)
}

// captureFailure writes the error screenshot. Failures here are logged only.
func (r *Runner) captureFailure(pageCtx context.Context, step, targetURL string) {
	ctx, cancel := context.WithTimeout(pageCtx, captureTimeout)
	defer cancel()
	path, err := r.saveScreenshot(ctx, artifact.NameError, step, targetURL)
	if err != nil {
		r.logger.Warn("error screenshot failed", "step", step, "error", err)
		return
	}
	r.logger.Info("Error screenshot saved", "path", path, "step", step)
}
