package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort          = 3318
	DefaultSQLiteURL     = "file:quickly-poll.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	DefaultVoteLimit     = 5
	DefaultVoteWindow    = 60 * time.Second
	DefaultSweepInterval = 5 * time.Minute
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	SessionSalt  string
	RedisURL     string

	VoteLimit     int
	VoteWindow    time.Duration
	SweepInterval time.Duration
}

// LoadEnv reads a .env file into the environment if one exists. Variables
// that are already set win.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and fills unset values from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quickly-poll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "Redis URL for cross-process live results (optional)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSalt, "session-salt", "", "Session token signing salt (prefer env)")

	// Vote rate limiting
	fs.IntVar(&cfg.VoteLimit, "vote-limit", 0, "Vote attempts allowed per window")
	fs.DurationVar(&cfg.VoteWindow, "vote-window", 0, "Vote rate limit window")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", 0, "How often expired rate limit buckets are dropped")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultSQLiteURL
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if cfg.VoteLimit == 0 {
		limit, err := envInt("VOTE_RATE_LIMIT", DefaultVoteLimit)
		if err != nil {
			return Config{}, err
		}
		cfg.VoteLimit = limit
	}
	if cfg.VoteLimit < 1 {
		return Config{}, errors.New("vote limit must be at least 1")
	}

	if cfg.VoteWindow == 0 {
		window, err := envDuration("VOTE_RATE_WINDOW", DefaultVoteWindow)
		if err != nil {
			return Config{}, err
		}
		cfg.VoteWindow = window
	}
	if cfg.VoteWindow <= 0 {
		return Config{}, errors.New("vote window must be positive")
	}

	if cfg.SweepInterval == 0 {
		interval, err := envDuration("RATE_LIMIT_SWEEP_INTERVAL", DefaultSweepInterval)
		if err != nil {
			return Config{}, err
		}
		cfg.SweepInterval = interval
	}

	// Secrets - MUST be provided
	if cfg.SessionSalt == "" {
		cfg.SessionSalt = os.Getenv("SESSION_SALT")
	}
	if cfg.SessionSalt == "" {
		return Config{}, errors.New("SESSION_SALT required")
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
