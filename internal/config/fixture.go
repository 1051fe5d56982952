package config

import "strings"

// FixtureConfig holds configuration for the stand-in registry server.
type FixtureConfig struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	Packages         []string
	Behavior         []string
	LoadDelayMS      int
	LogLevel         string
	LogFile          string
}

// LoadFixture reads fixture server configuration from environment variables.
func LoadFixture() (*FixtureConfig, error) {
	cfg := &FixtureConfig{
		BindAddr:         getEnvOrDefault("FIXTURE_BIND_ADDR", "127.0.0.1:3000"),
		PortCandidates:   getEnvListOrDefault("FIXTURE_PORT_CANDIDATES", []string{"127.0.0.1:3001", "127.0.0.1:3002", "127.0.0.1:3003"}),
		PortAutoFallback: getEnvBoolOrDefault("FIXTURE_PORT_AUTO_FALLBACK", true),
		Packages:         getEnvListOrDefault("FIXTURE_PACKAGES", []string{"@test/fix-package"}),
		Behavior:         getEnvListOrDefault("FIXTURE_BEHAVIOR", nil),
		LoadDelayMS:      getEnvIntOrDefault("FIXTURE_LOAD_DELAY_MS", 300),
		LogLevel:         strings.ToLower(getEnvOrDefault("FIXTURE_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("FIXTURE_LOG_FILE", "logs/fixture_server.log"),
	}
	return cfg, nil
}
