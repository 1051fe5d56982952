package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acidgreenservers/GitLobster/internal/cli"
	"github.com/acidgreenservers/GitLobster/internal/config"
	"github.com/acidgreenservers/GitLobster/internal/fixture"
	"github.com/acidgreenservers/GitLobster/internal/netutil"
)

func main() {
	cfg, err := config.LoadFixture()
	if err != nil {
		slog.Error("failed to load fixture config", "error", err)
		os.Exit(1)
	}

	if err := cli.SetupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("fixture_server config loaded",
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"packages", cfg.Packages,
		"behavior", cfg.Behavior,
		"load_delay_ms", cfg.LoadDelayMS,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	behavior, err := fixture.ParseBehavior(cfg.Behavior, time.Duration(cfg.LoadDelayMS)*time.Millisecond)
	if err != nil {
		slog.Error("invalid fixture behavior", "error", err)
		os.Exit(1)
	}

	reg, err := fixture.NewRegistry(cfg.Packages...)
	if err != nil {
		slog.Error("failed to seed fixture registry", "packages", cfg.Packages, "error", err)
		os.Exit(1)
	}

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind fixture server", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Handler: fixture.NewServer(reg, behavior), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		slog.Info("fixture_server listening", "addr", ln.Addr().String(), "packages", reg.Names())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("fixture_server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("fixture_server shutdown failed", "error", err)
	}
}
