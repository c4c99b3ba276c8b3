package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "medvault", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "medvault/notifications", cfg.MQTT.TopicPrefix)
	assert.False(t, cfg.Push.Enabled)
	assert.Equal(t, 3, cfg.Push.RetryCount)

	assert.Equal(t, "./data/medvault-cache.db", cfg.Cache.Path)
	assert.Empty(t, cfg.ProfileID)
	assert.Equal(t, "medvault:feed:", cfg.Feed.ChannelPrefix)
	assert.Equal(t, "medvault:inbox:", cfg.Inbox.StreamPrefix)

	assert.Equal(t, 3600, cfg.Detector.Interval)
	assert.Equal(t, time.Hour, cfg.DetectorInterval())
	assert.False(t, cfg.Detector.Dedup)
	assert.Equal(t, "medvault:missed:", cfg.Detector.DedupKeyPrefix)
	assert.Equal(t, "Local", cfg.Detector.Timezone)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "6543")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("REDIS_DB", "3")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("PUSH_ENABLED", "true")
	os.Setenv("PUSH_URL", "https://push.example.com")
	os.Setenv("PROFILE_ID", "profile-1")
	os.Setenv("DETECTOR_INTERVAL", "900")
	os.Setenv("DETECTOR_DEDUP", "true")
	os.Setenv("DETECTOR_TIMEZONE", "Asia/Tokyo")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "test-db", cfg.Database.Database)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.MQTT.Enabled)
	assert.True(t, cfg.Push.Enabled)
	assert.Equal(t, "https://push.example.com", cfg.Push.URL)
	assert.Equal(t, "profile-1", cfg.ProfileID)
	assert.Equal(t, 15*time.Minute, cfg.DetectorInterval())
	assert.True(t, cfg.Detector.Dedup)
	assert.Equal(t, "debug", cfg.Log.Level)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestLoad_InvalidValues(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("DETECTOR_INTERVAL", "0")
	_, err := Load()
	assert.Error(t, err)

	os.Setenv("DETECTOR_INTERVAL", "60")
	os.Setenv("DETECTOR_TIMEZONE", "Mars/Olympus")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, "default-value", getEnv("TEST_KEY", "default-value"))

	os.Setenv("TEST_KEY", "test-value")
	assert.Equal(t, "test-value", getEnv("TEST_KEY", "default-value"))
	os.Clearenv()
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 42, parseInt("42", 7))
	assert.Equal(t, 7, parseInt("forty-two", 7))
	assert.True(t, parseBool("true", false))
	assert.False(t, parseBool("maybe", false))
}
