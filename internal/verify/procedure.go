package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/acidgreenservers/GitLobster/internal/artifact"
	"github.com/chromedp/chromedp"
)

// Landmarks and control labels the procedure keys on.
const (
	LoadingText      = "Loading repository..."
	SettingsLabel    = "Settings"
	SettingsLandmark = "General Settings"
	SaveLabel        = "Save Changes"
	ModalLandmark    = "Agent Action Required"
	DebugLabel       = "[Debug] Execute as Local Admin"

	pollInterval = 100 * time.Millisecond
)

// Success signals accepted after the debug bypass.
const (
	SignalModalClosed = "modal-closed"
	SignalCheckmark   = "checkmark"
)

// Checkpoint is one bounded wait-then-act step.
type Checkpoint struct {
	Name    string
	Kind    string
	Reason  string
	Failure string
	Timeout time.Duration
	Action  func(ctx context.Context) error
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// controlXPath matches a link or button whose text contains label.
func controlXPath(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf(`//a[contains(normalize-space(.), %s)] | //button[contains(normalize-space(.), %s)]`, lit, lit)
}

func xpathLiteral(s string) string {
	for _, r := range s {
		if r == '"' {
			return "'" + s + "'"
		}
	}
	return `"` + s + `"`
}

func textVisibleJS(text string) string {
	return fmt.Sprintf(`document.body !== null && document.body.innerText.includes(%s)`, jsString(text))
}

func textGoneJS(text string) string {
	return fmt.Sprintf(`document.body !== null && !document.body.innerText.includes(%s)`, jsString(text))
}

// modalHTMLJS returns the outerHTML of the innermost element that owns the
// landmark text and also holds the debug control, or "" when there is none.
func modalHTMLJS() string {
	return fmt.Sprintf(`(() => {
  const landmark = %s;
  const debug = %s;
  const root = document.body;
  if (!root) return "";
  const owner = Array.from(root.querySelectorAll('*')).find(el =>
    !el.closest('script, style, template, noscript') &&
    Array.from(el.childNodes).some(n => n.nodeType === Node.TEXT_NODE && n.textContent.includes(landmark)));
  for (let el = owner; el && el !== document.documentElement; el = el.parentElement) {
    const hasDebug = Array.from(el.querySelectorAll('button, a')).some(c =>
      (c.textContent || "").replace(/\s+/g, " ").includes(debug));
    if (hasDebug) return el.outerHTML;
  }
  return "";
})()`, jsString(ModalLandmark), jsString(DebugLabel))
}

func successSignalJS() string {
	return fmt.Sprintf(`(() => {
  const body = document.body ? document.body.innerText : "";
  if (!body.includes(%s)) return %s;
  const saved = Array.from(document.querySelectorAll('button, a')).some(el => {
    const text = el.innerText || "";
    return text.includes(%s) && /[✓✔]/.test(text);
  });
  return saved ? %s : false;
})()`, jsString(ModalLandmark), jsString(SignalModalClosed), jsString(SaveLabel), jsString(SignalCheckmark))
}

func waitFor(expression string, res any, timeout time.Duration) chromedp.Action {
	return chromedp.Poll(expression, res,
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(timeout),
	)
}

// procedure builds the ordered checkpoint list for one run against targetURL.
func (r *Runner) procedure(targetURL string, landmark string) []Checkpoint {
	step := r.opts.StepTimeout
	ready := r.opts.ReadyTimeout
	expected := r.opts.ExpectedCommand
	log := r.logger

	return []Checkpoint{
		{
			Name:    "navigate",
			Kind:    KindNavigation,
			Failure: "could not load " + targetURL,
			Timeout: ready,
			Action: func(ctx context.Context) error {
				return chromedp.Run(ctx, chromedp.Navigate(targetURL))
			},
		},
		{
			Name:    "wait-ready",
			Kind:    KindNavigation,
			Failure: "fixture view never finished loading",
			Timeout: ready,
			Action: func(ctx context.Context) error {
				var ok bool
				if err := chromedp.Run(ctx, waitFor(textGoneJS(LoadingText), &ok, ready)); err != nil {
					return fmt.Errorf("loading indicator still shown: %w", err)
				}
				if landmark == "" {
					return nil
				}
				if err := chromedp.Run(ctx, waitFor(textVisibleJS(landmark), &ok, ready)); err != nil {
					return fmt.Errorf("landmark %q not rendered: %w", landmark, err)
				}
				return nil
			},
		},
		{
			Name:    "open-settings",
			Kind:    KindElementNotFound,
			Failure: "Settings control not found",
			Timeout: step,
			Action: func(ctx context.Context) error {
				return chromedp.Run(ctx, chromedp.Click(controlXPath(SettingsLabel), chromedp.BySearch, chromedp.NodeVisible))
			},
		},
		{
			Name:    "wait-settings-panel",
			Kind:    KindElementNotFound,
			Failure: SettingsLandmark + " panel not rendered",
			Timeout: step,
			Action: func(ctx context.Context) error {
				var ok bool
				return chromedp.Run(ctx, waitFor(textVisibleJS(SettingsLandmark), &ok, step))
			},
		},
		{
			Name:    "toggle-checkbox",
			Kind:    KindElementNotFound,
			Failure: "no checkbox control on the settings panel",
			Timeout: step,
			Action: func(ctx context.Context) error {
				return chromedp.Run(ctx, chromedp.Click(`input[type="checkbox"]`, chromedp.ByQuery, chromedp.NodeVisible))
			},
		},
		{
			Name:    "save-changes",
			Kind:    KindElementNotFound,
			Failure: SaveLabel + " control not found",
			Timeout: step,
			Action: func(ctx context.Context) error {
				return chromedp.Run(ctx, chromedp.Click(controlXPath(SaveLabel), chromedp.BySearch, chromedp.NodeVisible))
			},
		},
		{
			Name:    "wait-modal",
			Kind:    KindAssertion,
			Reason:  ReasonModalMissing,
			Failure: ModalLandmark + " modal did not appear",
			Timeout: step,
			Action: func(ctx context.Context) error {
				var ok bool
				return chromedp.Run(ctx, waitFor(textVisibleJS(ModalLandmark), &ok, step))
			},
		},
		{
			Name:    "check-command",
			Kind:    KindAssertion,
			Reason:  ReasonContentMismatch,
			Failure: fmt.Sprintf("modal does not contain %q", expected),
			Timeout: step,
			Action: func(ctx context.Context) error {
				var html string
				if err := chromedp.Run(ctx, chromedp.Evaluate(modalHTMLJS(), &html)); err != nil {
					return fmt.Errorf("read modal: %w", err)
				}
				return r.checkCommand(html)
			},
		},
		{
			Name:    "debug-execute",
			Kind:    KindElementNotFound,
			Failure: DebugLabel + " control not found",
			Timeout: step,
			Action: func(ctx context.Context) error {
				return chromedp.Run(ctx, chromedp.Click(controlXPath(DebugLabel), chromedp.BySearch, chromedp.NodeVisible))
			},
		},
		{
			Name:    "wait-success",
			Kind:    KindAssertion,
			Reason:  ReasonSuccessMissing,
			Failure: "no success signal after debug execute (modal still open, no checkmark)",
			Timeout: step,
			Action: func(ctx context.Context) error {
				var signal string
				if err := chromedp.Run(ctx, waitFor(successSignalJS(), &signal, step)); err != nil {
					return err
				}
				log.Info("Debug execute completed", "signal", signal)
				return nil
			},
		},
		{
			Name:    "capture-evidence",
			Failure: "could not capture success screenshot",
			Timeout: step,
			Action: func(ctx context.Context) error {
				path, err := r.saveScreenshot(ctx, artifact.NameSuccess, "capture-evidence", targetURL)
				if err != nil {
					return err
				}
				r.screenshot = path
				log.Info("Screenshot saved", "path", path)
				return nil
			},
		},
	}
}

// checkCommand verifies the modal HTML carries the expected command.
func (r *Runner) checkCommand(modalHTML string) error {
	if strings.TrimSpace(modalHTML) == "" {
		return fmt.Errorf("no container holds both %q and %q", ModalLandmark, DebugLabel)
	}
	command, ok, err := findCommand(modalHTML, r.opts.ExpectedCommand)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected command missing")
	}
	r.logger.Info("Modal appeared with correct command", "command", command)
	return nil
}
