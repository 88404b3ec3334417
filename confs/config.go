package confs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the simulator and the read API. Values
// come from the environment, optionally seeded from a .env file.
type Config struct {
	DBURL       string // full connection string, overrides the individual DB_* fields
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBTableName string

	ServerHost string
	ServerPort string

	LogLevel    string
	LogEncoding string

	// Pool discipline shared by writers and readers.
	PoolSize           int
	PoolAcquireTimeout time.Duration
	InsertMaxRetries   int
	InsertRetryBackoff time.Duration

	ShutdownGracePeriod time.Duration

	// ProducerEnabled turns the three generator tasks on or off, so the
	// read API can run against an existing table.
	ProducerEnabled bool
}

// Load reads configuration from the environment. A .env file is loaded
// first if present; a missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	env := &envReader{}
	cfg := &Config{
		DBURL:       os.Getenv("DB_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBTableName: getEnv("DB_TABLE_NAME", "machine_signals"),

		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "console"),

		PoolSize:           env.intVal("POOL_SIZE", 16),
		PoolAcquireTimeout: env.durationVal("POOL_ACQUIRE_TIMEOUT", 500*time.Millisecond),
		InsertMaxRetries:   env.intVal("INSERT_MAX_RETRIES", 3),
		InsertRetryBackoff: env.durationVal("INSERT_RETRY_BACKOFF", 50*time.Millisecond),

		ShutdownGracePeriod: env.durationVal("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		ProducerEnabled: env.boolVal("PRODUCER_ENABLED", true),
	}
	if env.err != nil {
		return nil, env.err
	}

	if cfg.DBURL == "" {
		if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBUser == "" || cfg.DBPassword == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	}
	if cfg.PoolSize < 4 {
		// Three writers plus at least one reader must fit.
		return nil, fmt.Errorf("POOL_SIZE must be at least 4, got %d", cfg.PoolSize)
	}

	return cfg, nil
}

// ServerAddr returns the host:port the HTTP server binds to.
func (c *Config) ServerAddr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envReader parses typed environment variables and records the first
// malformed value, so Load can refuse to start on a typo instead of
// silently running with a default.
type envReader struct {
	err error
}

func (r *envReader) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (r *envReader) intVal(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return n
}

func (r *envReader) durationVal(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return d
}

func (r *envReader) boolVal(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return fallback
	}
	return b
}
