package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"wz-analyzer/internal/constants"
	"wz-analyzer/internal/domain"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	SSOTokens         []string
	BaseURL           string
	RequestsPerSecond float64

	CachePath string
	OutputDir string
	LogLevel  string

	Concurrency int
	TaskTimeout time.Duration
	MatchLimit  int
	Strict      bool

	Username string
	Platform domain.Platform
	MatchID  string
}

// Overrides carries command line values. Zero values leave the environment
// setting in place.
type Overrides struct {
	Username    string
	Platform    string
	MatchID     string
	Strict      *bool
	MatchLimit  int
	Concurrency int
}

func Load(logger zerolog.Logger, overrides Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		SSOTokens:         splitList(getEnv("COD_SSO_TOKENS", "")),
		BaseURL:           strings.TrimRight(getEnv("COD_BASE_URL", "https://my.callofduty.com/api/papi-client"), "/"),
		RequestsPerSecond: getFloat("COD_REQUESTS_PER_SECOND", constants.DefaultRequestsPerSecond),
		CachePath:         getEnv("CACHE_PATH", "playerCache.json"),
		OutputDir:         getEnv("OUTPUT_DIR", "."),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Concurrency:       getInt("CONCURRENCY", constants.DefaultConcurrency),
		TaskTimeout:       getDuration("TASK_TIMEOUT", constants.DefaultTaskTimeout),
		MatchLimit:        getInt("MATCH_LIMIT", constants.DefaultMatchLimit),
		Strict:            getBool("STRICT", true),
		Username:          getEnv("FOLLOW_USERNAME", ""),
		Platform:          domain.Platform(getEnv("FOLLOW_PLATFORM", "")),
		MatchID:           getEnv("MATCH_ID", ""),
	}

	cfg.apply(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.SSOTokens) == 0 {
		logger.Warn().Msg("COD_SSO_TOKENS is empty, every directory lookup will fail authentication")
	}

	logger.Info().
		Str("username", cfg.Username).
		Str("platform", string(cfg.Platform)).
		Str("match_id", cfg.MatchID).
		Str("cache_path", cfg.CachePath).
		Str("output_dir", cfg.OutputDir).
		Int("concurrency", cfg.Concurrency).
		Dur("task_timeout", cfg.TaskTimeout).
		Int("match_limit", cfg.MatchLimit).
		Bool("strict", cfg.Strict).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) apply(o Overrides) {
	if o.Username != "" {
		c.Username = o.Username
	}
	if o.Platform != "" {
		c.Platform = domain.Platform(o.Platform)
	}
	if o.MatchID != "" {
		c.MatchID = o.MatchID
	}
	if o.Strict != nil {
		c.Strict = *o.Strict
	}
	if o.MatchLimit > 0 {
		c.MatchLimit = o.MatchLimit
	}
	if o.Concurrency > 0 {
		c.Concurrency = o.Concurrency
	}
}

func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("username to follow is required")
	}
	if !c.Platform.Valid() {
		return fmt.Errorf("invalid platform %q: must be one of battle, psn, xbl, uno", c.Platform)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.MatchLimit < 1 {
		return fmt.Errorf("match limit must be at least 1, got %d", c.MatchLimit)
	}
	if c.TaskTimeout <= 0 {
		return fmt.Errorf("task timeout must be positive, got %s", c.TaskTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
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
