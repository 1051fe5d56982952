package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/acidgreenservers/GitLobster/internal/cli"
	"github.com/acidgreenservers/GitLobster/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load verify config", "error", err)
		os.Exit(1)
	}

	cmd := cli.NewVerifyCommand(&cli.VerifyOptions{Config: cfg})
	if err := cmd.Execute(); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "verify_agent_modal: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}
}
