// Package cli holds the command-line surface of the agent modal verifier.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acidgreenservers/GitLobster/internal/artifact"
	"github.com/acidgreenservers/GitLobster/internal/browser"
	"github.com/acidgreenservers/GitLobster/internal/config"
	"github.com/acidgreenservers/GitLobster/internal/notify"
	"github.com/acidgreenservers/GitLobster/internal/report"
	"github.com/acidgreenservers/GitLobster/internal/verify"
)

const notifyTimeout = 10 * time.Second

// ErrVerificationFailed is returned when the run completed with a failed checkpoint.
var ErrVerificationFailed = errors.New("verification failed")

// Runner is the part of verify.Runner the command drives.
type Runner interface {
	Run(ctx context.Context) (verify.Outcome, error)
}

// VerifyOptions carries configuration and test seams for the verify command.
type VerifyOptions struct {
	Config *config.Config

	// NewRunner overrides runner construction (for testing).
	// If nil, verify.NewRunner is used.
	NewRunner func(verify.Options, *artifact.Store, *report.Recorder) Runner

	// SkipLoggerSetup leaves the default slog logger in place (for testing).
	SkipLoggerSetup bool
}

// NewVerifyCommand creates the root command. Flag defaults come from cfg,
// which already reflects environment and .env values.
func NewVerifyCommand(opts *VerifyOptions) *cobra.Command {
	cfg := opts.Config

	cmd := &cobra.Command{
		Use:   "verify_agent_modal",
		Short: "Verify the Agent Action Required modal on a repository Settings save",
		Long: `Drive a browser through the repository Settings save flow of a running
GitLobster instance and check that the Agent Action Required modal appears with
the botkit command, and that the debug bypass completes the save.

Evidence is written to the output directory: agent_modal.png on success,
error.png on failure, plus checkpoints.jsonl.

Example:
  verify_agent_modal
  verify_agent_modal --addressing query
  verify_agent_modal --url http://localhost:3000/@test/fix-package/settings`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "base URL of the running application")
	f.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "fixture package (@scope/name)")
	f.StringVar(&cfg.Addressing, "addressing", cfg.Addressing, "addressing mode (path|query)")
	f.StringVar(&cfg.TargetURL, "url", cfg.TargetURL, "full target URL; overrides --base-url, --fixture and --addressing")
	f.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for screenshots and checkpoint records")
	f.StringVar(&cfg.ExpectedCommand, "expected-command", cfg.ExpectedCommand, "text the modal must contain")
	f.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run the browser headless")
	f.StringVar(&cfg.CDPURL, "cdp-url", cfg.CDPURL, "attach to a running browser at this CDP endpoint instead of launching one")
	f.StringVar(&cfg.BrowserPath, "browser-path", cfg.BrowserPath, "browser executable for local launch")
	f.IntVar(&cfg.StepTimeoutMS, "step-timeout", cfg.StepTimeoutMS, "per-checkpoint wait bound in milliseconds")
	f.IntVar(&cfg.ReadyTimeoutMS, "ready-timeout", cfg.ReadyTimeoutMS, "page-ready wait bound in milliseconds")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotating log file path")
	f.StringVar(&cfg.NotifyURL, "notify-url", cfg.NotifyURL, "ntfy-style endpoint for the run summary")

	return cmd
}

// resolveTarget builds the target from --url when set, else from its parts.
func resolveTarget(cfg *config.Config) (verify.Target, error) {
	if cfg.TargetURL != "" {
		return verify.ParseTargetURL(cfg.TargetURL)
	}
	mode, err := verify.ParseAddressing(cfg.Addressing)
	if err != nil {
		return verify.Target{}, err
	}
	t := verify.Target{BaseURL: cfg.BaseURL, Fixture: cfg.Fixture, Addressing: mode}
	return t, t.Validate()
}

func runVerify(ctx context.Context, opts *VerifyOptions, out io.Writer) error {
	cfg := opts.Config
	cfg.Normalize()

	if !opts.SkipLoggerSetup {
		if err := SetupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
			return fmt.Errorf("logger setup failed: %w", err)
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	target, err := resolveTarget(cfg)
	if err != nil {
		return fmt.Errorf("invalid target: %w", err)
	}

	store, err := artifact.NewStore(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("create artifact store: %w", err)
	}
	recorder, err := report.NewRecorder(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("create checkpoint recorder: %w", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			slog.Debug("checkpoint recorder close failed", "error", err)
		}
	}()

	runOpts := verify.Options{
		Target:          target,
		ExpectedCommand: cfg.ExpectedCommand,
		StepTimeout:     cfg.StepTimeout(),
		ReadyTimeout:    cfg.ReadyTimeout(),
		Browser: browser.Config{
			RemoteURL: cfg.CDPURL,
			ExecPath:  cfg.BrowserPath,
			Headless:  cfg.Headless,
		},
	}

	newRunner := opts.NewRunner
	if newRunner == nil {
		newRunner = func(o verify.Options, s *artifact.Store, r *report.Recorder) Runner {
			return verify.NewRunner(o, s, r)
		}
	}

	outcome, runErr := newRunner(runOpts, store, recorder).Run(ctx)
	printOutcome(out, outcome, runErr)
	printEvidence(out, store, recorder)

	if cfg.NotifyURL != "" {
		sendSummary(ctx, cfg.NotifyURL, outcome, runErr)
	}

	if runErr != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, runErr)
	}
	return nil
}

func printOutcome(out io.Writer, o verify.Outcome, err error) {
	if err == nil {
		fmt.Fprintf(out, "PASS %s\n  screenshot: %s\n  run: %s (%s)\n",
			o.TargetURL, o.Screenshot, o.RunID, o.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(out, "FAIL %s\n  step: %s\n  error: %v\n  run: %s\n",
		o.TargetURL, o.FailedStep, err, o.RunID)
}

// printEvidence lists the screenshots left in the output directory.
func printEvidence(out io.Writer, store *artifact.Store, recorder *report.Recorder) {
	metas, err := store.List()
	if err != nil {
		slog.Warn("artifact listing failed", "dir", store.Dir(), "error", err)
		return
	}
	for _, m := range metas {
		fmt.Fprintf(out, "  evidence: %s (step %s, %d bytes)\n", store.ImagePath(m.Name, m.Format), m.Step, m.SizeBytes)
	}
	fmt.Fprintf(out, "  checkpoints: %s\n", recorder.Path())
}

// sendSummary posts the run summary. Delivery failures never change the exit status.
func sendSummary(ctx context.Context, endpoint string, o verify.Outcome, runErr error) {
	s := notify.Summary{
		RunID:     o.RunID,
		TargetURL: o.TargetURL,
		Passed:    runErr == nil,
		Step:      o.FailedStep,
		Duration:  o.Duration,
	}
	if runErr != nil {
		s.Reason = runErr.Error()
		if verr, ok := verify.AsError(runErr); ok {
			s.Reason = verr.Kind
			if verr.Reason != "" {
				s.Reason += "(" + verr.Reason + ")"
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := notify.SendSummary(ctx, &http.Client{Timeout: notifyTimeout}, endpoint, s); err != nil {
		slog.Warn("run summary notification failed", "endpoint", endpoint, "error", err)
		return
	}
	slog.Info("run summary notification sent", "endpoint", endpoint)
}
