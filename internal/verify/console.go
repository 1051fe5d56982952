package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// observeConsole forwards the page's console output and uncaught exceptions
// to the log. It is a side channel only and never fails a checkpoint.
func observeConsole(ctx context.Context, logger *slog.Logger) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			logger.Info("browser console", "type", string(e.Type), "text", formatConsoleArgs(e.Args))
		case *runtime.EventExceptionThrown:
			logger.Warn("browser exception", "text", exceptionText(e.ExceptionDetails))
		}
	})
}

func formatConsoleArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case len(arg.Value) > 0:
			var s string
			if err := json.Unmarshal(arg.Value, &s); err == nil {
				parts = append(parts, s)
			} else {
				parts = append(parts, string(arg.Value))
			}
		case arg.UnserializableValue != "":
			parts = append(parts, string(arg.UnserializableValue))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}

func exceptionText(details *runtime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}
