package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	minStepTimeoutMS  = 500
	minReadyTimeoutMS = 1000
)

// Config holds all configuration for a verification run.
type Config struct {
	// Target application
	BaseURL         string
	Fixture         string
	Addressing      string
	TargetURL       string
	ExpectedCommand string

	// Browser session
	Headless    bool
	CDPURL      string
	BrowserPath string

	// Bounded waits
	StepTimeoutMS  int
	ReadyTimeoutMS int

	// Evidence and output
	OutputDir string
	LogLevel  string
	LogFile   string
	NotifyURL string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BaseURL:         getEnvOrDefault("VERIFY_BASE_URL", "http://localhost:3000"),
		Fixture:         getEnvOrDefault("VERIFY_FIXTURE", "@test/fix-package"),
		Addressing:      strings.ToLower(getEnvOrDefault("VERIFY_ADDRESSING", "path")),
		TargetURL:       getEnvOrDefault("VERIFY_TARGET_URL", ""),
		ExpectedCommand: getEnvOrDefault("VERIFY_EXPECTED_COMMAND", "botkit repo update"),
		Headless:        getEnvBoolOrDefault("VERIFY_HEADLESS", true),
		CDPURL:          getEnvOrDefault("VERIFY_CDP_URL", ""),
		BrowserPath:     getEnvOrDefault("VERIFY_BROWSER_PATH", ""),
		StepTimeoutMS:   getEnvIntOrDefault("VERIFY_STEP_TIMEOUT_MS", 5000),
		ReadyTimeoutMS:  getEnvIntOrDefault("VERIFY_READY_TIMEOUT_MS", 8000),
		OutputDir:       getEnvOrDefault("VERIFY_OUTPUT_DIR", "verification"),
		LogLevel:        strings.ToLower(getEnvOrDefault("VERIFY_LOG_LEVEL", "info")),
		LogFile:         getEnvOrDefault("VERIFY_LOG_FILE", "logs/verify_agent_modal.log"),
		NotifyURL:       getEnvOrDefault("VERIFY_NOTIFY_URL", ""),
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize clamps timeouts to their minimums and trims string settings.
// It is safe to call again after flags have overridden values.
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Fixture = strings.TrimSpace(c.Fixture)
	c.Addressing = strings.ToLower(strings.TrimSpace(c.Addressing))
	c.TargetURL = strings.TrimSpace(c.TargetURL)
	if c.StepTimeoutMS < minStepTimeoutMS {
		c.StepTimeoutMS = minStepTimeoutMS
	}
	if c.ReadyTimeoutMS < minReadyTimeoutMS {
		c.ReadyTimeoutMS = minReadyTimeoutMS
	}
}

// StepTimeout returns the per-checkpoint wait bound.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMS) * time.Millisecond
}

// ReadyTimeout returns the combined bound for the page-ready checkpoint.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.ReadyTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
