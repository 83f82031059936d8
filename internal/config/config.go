package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/workconnect.db"

	// Company calendar zone used to resolve dateKeys, e.g. "Asia/Jerusalem".
	CompanyTimezone string

	// Background loops
	WatchdogSweepMinutes int // how often the auto-end sweep runs (default 15)
	PruneIntervalHours   int // how often expired ledger entries are pruned (default 6)

	LogLevel string // logrus level name, default "info"
}

func FromEnv() Config {
	addr := getenvDefault("WORKCONNECT_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("WORKCONNECT_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("WORKCONNECT_DB_PATH", "./data/workconnect.db")
	tz := getenvDefault("WORKCONNECT_COMPANY_TZ", "Asia/Jerusalem")

	sweepMinutes := getenvInt("WORKCONNECT_WATCHDOG_SWEEP_MINUTES", 15)
	pruneInterval := getenvInt("WORKCONNECT_PRUNE_INTERVAL_HOURS", 6)

	logLevel := getenvDefault("WORKCONNECT_LOG_LEVEL", "info")

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		CompanyTimezone: tz,

		WatchdogSweepMinutes: sweepMinutes,
		PruneIntervalHours:   pruneInterval,

		LogLevel: logLevel,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
