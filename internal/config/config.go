package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RoutesFile string

	PlannerBaseURL  string
	PlannerTokenURL string
	PlannerClientID string
	PlannerSecret   string

	NATSURL         string
	LogNATSSubjects bool

	DatabaseURL string

	PollInterval time.Duration
	Location     *time.Location

	MetricsAddr string
	APIAddr     string
}

// Load reads service configuration from .env and the environment. Route
// definitions live in a separate TOML file, see LoadRoutes.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.RoutesFile = getenvDefault("ROUTES_FILE", "routes.toml")

	cfg.PlannerBaseURL = getenvDefault("PLANNER_BASE_URL", "https://ext-api.vasttrafik.se/pr/v4")
	cfg.PlannerTokenURL = getenvDefault("PLANNER_TOKEN_URL", "https://ext-api.vasttrafik.se/token")
	cfg.PlannerClientID = os.Getenv("PLANNER_CLIENT_ID")
	cfg.PlannerSecret = os.Getenv("PLANNER_SECRET")
	if cfg.PlannerClientID == "" || cfg.PlannerSecret == "" {
		return nil, errors.New("PLANNER_CLIENT_ID and PLANNER_SECRET must be set")
	}

	cfg.NATSURL = getenvDefault("NATS_URL", "nats://127.0.0.1:4222")

	// Optional registry database; the in-memory registry is used when unset.
	cfg.DatabaseURL = firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)

	// Poll interval
	if v := os.Getenv("POLL_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL_SEC: %q", v)
		}
		cfg.PollInterval = time.Duration(sec) * time.Second
	} else {
		cfg.PollInterval = 120 * time.Second
	}

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.APIAddr = getenvDefault("API_ADDR", ":8080")

	// Time zone
	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
