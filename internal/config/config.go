package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ankon07/medvault-ai-sub000/common/config"
)

// Config sync agent configuration
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Push     config.PushConfig
	Cache    config.CacheConfig

	// ProfileID overrides the persisted current user
	ProfileID string

	Feed struct {
		ChannelPrefix string // change feed channel prefix, e.g. "medvault:feed:"
	}

	Inbox struct {
		StreamPrefix string // per-member inbox stream prefix, e.g. "medvault:inbox:"
	}

	Detector struct {
		Interval       int    // seconds between passes, default 3600
		Dedup          bool   // notify each miss once instead of on every pass
		DedupKeyPrefix string // "medvault:missed:"
		DedupTTL       int    // seconds, default 36h
		Timezone       string // IANA name or "Local"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database = config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "medvault",
		SSLMode:  "disable",
		MaxConns: 10,
		MaxIdle:  2,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = config.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT = config.MQTTConfig{
		Broker:      "tcp://localhost:1883",
		ClientID:    "medvault-sync",
		QoS:         1,
		TopicPrefix: "medvault/notifications",
	}
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Push = config.PushConfig{
		URL:        "http://localhost:8090",
		Timeout:    10 * time.Second,
		RetryCount: 3,
	}
	cfg.Push.LoadFromEnv("PUSH")

	cfg.Cache.Path = getEnv("LOCAL_CACHE_PATH", "./data/medvault-cache.db")
	cfg.ProfileID = getEnv("PROFILE_ID", "")

	cfg.Feed.ChannelPrefix = getEnv("FEED_CHANNEL_PREFIX", "medvault:feed:")
	cfg.Inbox.StreamPrefix = getEnv("INBOX_STREAM_PREFIX", "medvault:inbox:")

	cfg.Detector.Interval = parseInt(getEnv("DETECTOR_INTERVAL", "3600"), 3600)
	cfg.Detector.Dedup = parseBool(getEnv("DETECTOR_DEDUP", "false"), false)
	cfg.Detector.DedupKeyPrefix = "medvault:missed:"
	cfg.Detector.DedupTTL = 36 * 3600
	cfg.Detector.Timezone = getEnv("DETECTOR_TIMEZONE", "Local")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Detector.Interval <= 0 {
		return nil, fmt.Errorf("DETECTOR_INTERVAL must be positive, got %d", cfg.Detector.Interval)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location calendar timezone for dates and slot hours
func (c *Config) Location() (*time.Location, error) {
	if c.Detector.Timezone == "" || c.Detector.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Detector.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DETECTOR_TIMEZONE %q: %w", c.Detector.Timezone, err)
	}
	return loc, nil
}

// DetectorInterval pass interval as a duration
func (c *Config) DetectorInterval() time.Duration {
	return time.Duration(c.Detector.Interval) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return v
}

func parseBool(s string, defaultValue bool) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return v
}
