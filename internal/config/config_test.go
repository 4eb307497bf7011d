package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func loadConfig(t *testing.T, path string) (*Config, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	require.NoError(t, Init(v, path))
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadConfig(t, "")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Network)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.Session.BackoffMax)
	assert.Equal(t, 5, cfg.Session.BreakerThreshold)
	assert.Equal(t, "thalex", cfg.Kafka.TopicPrefix)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, ":2112", cfg.Metrics.Addr)
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "thalex.yaml", `
network: prod
account: sub-1
log:
  level: debug
  format: json
session:
  public_channels:
    - ticker.BTC-PERPETUAL.1000ms
    - price_index.BTCUSD
  cancel_on_disconnect: 6
  cancel_all_on_exit: true
  backoff_base: 250ms
  backoff_max: 10s
kafka:
  enabled: true
  brokers: ["localhost:9092", "kafka-2:9092"]
metrics:
  enabled: true
  topics: [ticker, account.orders, error]
system:
  gcpercent: 200
`)

	cfg, err := loadConfig(t, path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Network)
	assert.Equal(t, "sub-1", cfg.Account)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, []string{"ticker.BTC-PERPETUAL.1000ms", "price_index.BTCUSD"}, cfg.Session.PublicChannels)
	assert.Equal(t, 6, cfg.Session.CancelOnDisconnect)
	assert.True(t, cfg.Session.CancelAllOnExit)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.BackoffBase)
	assert.Equal(t, 10*time.Second, cfg.Session.BackoffMax)
	assert.Equal(t, []string{"localhost:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 4, cfg.Kafka.PoolSize)
	assert.Equal(t, []string{"ticker", "account.orders", "error"}, cfg.Metrics.Topics)
	assert.Equal(t, 200, cfg.System.GCPercent)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("THALEX_NETWORK", "prod")
	t.Setenv("THALEX_SESSION_BREAKER_THRESHOLD", "9")
	t.Setenv("THALEX_LOG_LEVEL", "trace")

	cfg, err := loadConfig(t, "")
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Network)
	assert.Equal(t, 9, cfg.Session.BreakerThreshold)
	assert.Equal(t, "trace", cfg.Log.Level)
}

func TestInitMissingFile(t *testing.T) {
	err := Init(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Network: "test",
			Log:     LogConfig{Level: "info", Format: "text"},
			Session: SessionConfig{BackoffBase: time.Second, BackoffMax: time.Minute},
		}
	}

	testCases := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown network", func(c *Config) { c.Network = "staging" }, "Config.Network"},
		{"bad url", func(c *Config) { c.URL = "not a url" }, "Config.URL"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "Config.Log.Level"},
		{"backoff max below base", func(c *Config) { c.Session.BackoffMax = time.Millisecond }, "Config.Session.BackoffMax"},
		{"kafka without brokers", func(c *Config) {
			c.Kafka = KafkaConfig{Enabled: true, TopicPrefix: "thalex"}
		}, "Config.Kafka.Brokers"},
		{"kafka bad broker", func(c *Config) {
			c.Kafka = KafkaConfig{Enabled: true, TopicPrefix: "thalex", Brokers: []string{"nohost"}}
		}, "Config.Kafka.Brokers[0]"},
		{"redis without addr", func(c *Config) {
			c.Redis = RedisConfig{Enabled: true, ChannelPrefix: "thalex"}
		}, "Config.Redis.Addr"},
		{"disabled sinks are not checked", func(c *Config) {
			c.Kafka = KafkaConfig{}
			c.Redis = RedisConfig{}
		}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(&cfg)
			err := cfg.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func pemKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return key, string(block)
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}

func TestKeyFile(t *testing.T) {
	dir := t.TempDir()
	testKey, testPEM := pemKey(t)
	prodKey, prodPEM := pemKey(t)
	writeFile(t, dir, "prod.pem", prodPEM)

	path := writeFile(t, dir, "keys.yaml", "test:\n  key_id: K-TEST\n  private_key: |\n"+indent(testPEM)+
		"\nprod:\n  key_id: K-PROD\n  private_key_path: prod.pem\n")

	keys, err := LoadKeyFile(path)
	require.NoError(t, err)

	id, key, err := keys.For(thalex.Test)
	require.NoError(t, err)
	assert.Equal(t, "K-TEST", id)
	assert.True(t, testKey.Equal(key))

	id, key, err = keys.For(thalex.Prod)
	require.NoError(t, err)
	assert.Equal(t, "K-PROD", id)
	assert.True(t, prodKey.Equal(key))
}

func TestKeyFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadKeyFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read key file")

	_, err = LoadKeyFile(writeFile(t, dir, "bad.yaml", "test: [unterminated"))
	assert.ErrorContains(t, err, "parse key file")

	_, err = LoadKeyFile(writeFile(t, dir, "noid.yaml", "test:\n  private_key_path: k.pem\n"))
	assert.ErrorContains(t, err, "invalid key for network test")

	_, err = LoadKeyFile(writeFile(t, dir, "nokey.yaml", "test:\n  key_id: K1\n"))
	assert.ErrorContains(t, err, "invalid key for network test")

	keys, err := LoadKeyFile(writeFile(t, dir, "onlyprod.yaml", "prod:\n  key_id: K1\n  private_key_path: missing.pem\n"))
	require.NoError(t, err)
	_, _, err = keys.For(thalex.Test)
	assert.ErrorContains(t, err, "no key for network test")
	_, _, err = keys.For(thalex.Prod)
	assert.Error(t, err)
}
