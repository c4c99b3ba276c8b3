package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "6543")
	os.Setenv("DB_NAME", "medvault")
	os.Setenv("DB_SSLMODE", "require")

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", SSLMode: "disable"}
	cfg.LoadFromEnv("DB")

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "postgres", cfg.User)
	assert.Equal(t, "host=db.internal port=6543 user=postgres password= dbname=medvault sslmode=require", cfg.GetDSN())
}

func TestDatabaseConfig_LoadFromEnvKeepsPortOnGarbage(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("DB_PORT", "not-a-port")

	cfg := DatabaseConfig{Port: 5432}
	cfg.LoadFromEnv("DB")

	assert.Equal(t, 5432, cfg.Port)
}

func TestRedisAndMQTTConfig_LoadFromEnv(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("REDIS_ADDR", "redis:6379")
	os.Setenv("REDIS_DB", "2")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("MQTT_BROKER", "tcp://broker:1883")
	os.Setenv("MQTT_TOPIC_PREFIX", "family")

	redisCfg := RedisConfig{Addr: "localhost:6379"}
	redisCfg.LoadFromEnv("REDIS")
	assert.Equal(t, "redis:6379", redisCfg.Addr)
	assert.Equal(t, 2, redisCfg.DB)

	mqttCfg := MQTTConfig{ClientID: "medvault-sync"}
	mqttCfg.LoadFromEnv("MQTT")
	assert.True(t, mqttCfg.Enabled)
	assert.Equal(t, "tcp://broker:1883", mqttCfg.Broker)
	assert.Equal(t, "medvault-sync", mqttCfg.ClientID)
	assert.Equal(t, "family", mqttCfg.TopicPrefix)
}

func TestPushConfig_LoadFromEnv(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("PUSH_ENABLED", "yes")
	os.Setenv("PUSH_URL", "https://push.example.com")

	cfg := PushConfig{}
	cfg.LoadFromEnv("PUSH")

	assert.False(t, cfg.Enabled, "only \"true\" enables")
	assert.Equal(t, "https://push.example.com", cfg.URL)
	assert.Empty(t, cfg.AccessToken)
}
