package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var driverAliases = map[string]string{
	"postgresql": DriverPostgres,
	"pq":         DriverPostgres,
	"sqlite3":    DriverSQLite,
}

// NormalizeDriver lowercases a driver name and resolves its aliases.
func NormalizeDriver(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := driverAliases[name]; ok {
		return canonical
	}
	return name
}

type Config struct {
	DBDriver        string
	DatabaseURL     string
	SQLitePath      string
	HTTPAddr        string
	RabbitMQURL     string
	AllowedOrigins  []string
	IntakeRateLimit int
	// FollowupSweep is how often waiting tasks with a past follow-up are
	// moved back to open. Zero, the default, disables the sweep.
	FollowupSweep   time.Duration
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env files (when present) and then the environment. Variables
// already set in the environment win over .env entries.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)

	return Config{
		DBDriver:        NormalizeDriver(getenv("DB_DRIVER", DriverSQLite)),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		SQLitePath:      getenv("SQLITE_PATH", "data/sales.db"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		RabbitMQURL:     getenv("RABBITMQ_URL", ""),
		AllowedOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		IntakeRateLimit: getint("INTAKE_RATE_LIMIT", 10),
		FollowupSweep:   getdur("FOLLOWUP_SWEEP_INTERVAL", 0),
		ShutdownTimeout: getdur("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=%s", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want %s, %s or %s)", c.DBDriver, DriverPostgres, DriverSQLite, DriverMemory)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	return nil
}
