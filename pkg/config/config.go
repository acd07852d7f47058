package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr        = ":8080"
	defaultModel       = "gpt-4o-mini"
	defaultMCPTarget   = "stdio://cassdoctor mcp-server"
	defaultMaxRounds   = 5
	defaultCallTimeout = 60 * time.Second
)

// Config carries every runtime knob the service consumes. Values are loaded
// once at startup and threaded explicitly into constructors; nothing reads
// the environment after Load returns.
type Config struct {
	Addr string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// MCPTarget is the transport spec for the tool provider, e.g.
	// "stdio://cassdoctor mcp-server" or "http://127.0.0.1:8001/mcp".
	MCPTarget string

	MaxRounds   int
	CallTimeout time.Duration

	UseMockOracle bool
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("CASSDOCTOR_ADDR", defaultAddr),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", defaultModel),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		MCPTarget:     getEnv("MCP_TARGET", defaultMCPTarget),
		MaxRounds:     defaultMaxRounds,
		CallTimeout:   defaultCallTimeout,
		UseMockOracle: getBoolEnv("USE_MOCK_ORACLE", false),
	}

	if v := os.Getenv("MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse MAX_ROUNDS: %w", err)
		}
		cfg.MaxRounds = n
	}
	if v := os.Getenv("CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse CALL_TIMEOUT: %w", err)
		}
		cfg.CallTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the structural guarantees the engine relies on: the
// round cap must be finite and positive, timeouts must be positive.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("MAX_ROUNDS must be at least 1, got %d", c.MaxRounds)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive, got %s", c.CallTimeout)
	}
	if c.MCPTarget == "" {
		return errors.New("MCP_TARGET is required")
	}
	if !c.UseMockOracle && c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required unless USE_MOCK_ORACLE is set")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}
