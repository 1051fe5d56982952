package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Summary is the outcome of a verification run as posted to an ntfy-style endpoint.
type Summary struct {
	RunID     string
	TargetURL string
	Passed    bool
	Step      string
	Reason    string
	Duration  time.Duration
}

// Message renders the one-line notification body.
func (s Summary) Message() string {
	if s.Passed {
		return fmt.Sprintf("agent modal verification passed: %s (run %s, %s)",
			s.TargetURL, s.RunID, s.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("agent modal verification FAILED at %s: %s: %s (run %s)",
		s.Step, s.TargetURL, s.Reason, s.RunID)
}

// SendSummary posts the run summary, tagging failures with a higher priority.
func SendSummary(ctx context.Context, client *http.Client, endpoint string, s Summary) error {
	headers := map[string]string{"Title": "agent modal verification"}
	if s.Passed {
		headers["Tags"] = "white_check_mark"
	} else {
		headers["Tags"] = "x"
		headers["Priority"] = "high"
	}
	return send(ctx, client, endpoint, s.Message(), headers)
}

func send(ctx context.Context, client *http.Client, endpoint, message string, headers map[string]string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("notify: missing endpoint")
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
