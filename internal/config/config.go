// Package config centralises environment configuration for the engine.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	AuthToken   string
	FCMKeyPath  string

	TeamStatsTTL   time.Duration
	LeaderboardTTL time.Duration

	QuotaDailyCeiling     int
	QuotaWarningThreshold int
	QuotaRetention        time.Duration

	CacheSweepInterval time.Duration
	QuotaSweepInterval time.Duration
	SendTimeout        time.Duration
}

// Load reads environment variables into Config, applying defaults that
// match the documented cache and quota behavior.
func Load() Config {
	return Config{
		Port:        getEnv("PORT", "3333"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		AuthToken:   getEnv("AUTH_TOKEN", ""),
		FCMKeyPath:  getEnv("FCM_KEY_PATH", "./serviceAccountKey.json"),

		TeamStatsTTL:   getDurationEnv("TEAM_STATS_TTL", time.Hour),
		LeaderboardTTL: getDurationEnv("LEADERBOARD_TTL", 5*time.Minute),

		QuotaDailyCeiling:     getIntEnv("QUOTA_DAILY_CEILING", 200),
		QuotaWarningThreshold: getIntEnv("QUOTA_WARNING_THRESHOLD", 20),
		QuotaRetention:        getDurationEnv("QUOTA_RETENTION", 7*24*time.Hour),

		CacheSweepInterval: getDurationEnv("CACHE_SWEEP_INTERVAL", 10*time.Minute),
		QuotaSweepInterval: getDurationEnv("QUOTA_SWEEP_INTERVAL", 24*time.Hour),
		SendTimeout:        getDurationEnv("SEND_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
