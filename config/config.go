package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	JWTSecret      string
	LogLevel       string
	AllowedOrigins []string
	MCPEnabled     bool
}

// Load reads .env files (default ".env") into the process environment and
// then builds the Config from it. A missing .env file is not an error; it is
// reported through envLoaded so the caller can log it once logging is up.
func Load(files ...string) (cfg Config, envLoaded bool, err error) {
	envLoaded = godotenv.Load(files...) == nil
	cfg, err = FromEnv()
	return cfg, envLoaded, err
}

// FromEnv builds the Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:           get("PORT", "8080"),
		JWTSecret:      get("JWT_SECRET", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(get("ALLOWED_ORIGINS", "*")),
		MCPEnabled:     true,
	}
	if v := get("MCP_ENABLED", ""); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MCP_ENABLED %q: %w", v, err)
		}
		cfg.MCPEnabled = enabled
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
