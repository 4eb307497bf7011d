// Package config loads the settings of the thalex command: a viper backed
// config file, environment (THALEX_ prefix) and flags, validated with
// go-playground/validator. API keys live in a separate key file, see KeyFile.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "THALEX"

type Config struct {
	Network string `mapstructure:"network" validate:"required,oneof=test prod"`
	// URL overrides the websocket endpoint of the network.
	URL     string `mapstructure:"url" validate:"omitempty,url"`
	Account string `mapstructure:"account"`
	KeyFile string `mapstructure:"key_file"`

	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	System  SystemConfig  `mapstructure:"system"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type SessionConfig struct {
	PublicChannels     []string `mapstructure:"public_channels"`
	PrivateChannels    []string `mapstructure:"private_channels"`
	CancelOnDisconnect int      `mapstructure:"cancel_on_disconnect" validate:"gte=0"`
	// CancelAllOnExit cancels every open order of the account on shutdown.
	CancelAllOnExit bool          `mapstructure:"cancel_all_on_exit"`
	ExitTimeout     time.Duration `mapstructure:"exit_timeout"`

	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max" validate:"gtefield=BackoffBase"`
	BreakerThreshold int           `mapstructure:"breaker_threshold" validate:"gte=0"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval"`
	RateLimit        float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst        int           `mapstructure:"rate_burst" validate:"gte=0"`
	BufferSize       int           `mapstructure:"buffer_size" validate:"gte=0"`
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	TopicPrefix string   `mapstructure:"topic_prefix" validate:"required_if=Enabled true"`
	ClientID    string   `mapstructure:"client_id"`
	PoolSize    int      `mapstructure:"pool_size" validate:"gte=0"`
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db" validate:"gte=0"`
	ChannelPrefix string `mapstructure:"channel_prefix" validate:"required_if=Enabled true"`
	PoolSize      int    `mapstructure:"pool_size" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	SystemInterval time.Duration `mapstructure:"system_interval"`
	// Topics restricts the message types counted, e.g. ["ticker", "error"].
	Topics         []string      `mapstructure:"topics"`
}

// SystemConfig holds the Go runtime settings applied at startup. Zero leaves
// the runtime default.
type SystemConfig struct {
	MaxProcs    int `mapstructure:"maxprocs" validate:"gte=0"`
	GCPercent   int `mapstructure:"gcpercent"`
	MaxThreads  int `mapstructure:"maxthreads" validate:"gte=0"`
	MemoryLimit int `mapstructure:"memorylimit" validate:"gte=0"` // MB
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("network", "test")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("session.exit_timeout", 5*time.Second)
	v.SetDefault("session.backoff_base", 500*time.Millisecond)
	v.SetDefault("session.backoff_max", 30*time.Second)
	v.SetDefault("session.breaker_threshold", 5)
	v.SetDefault("session.breaker_timeout", 30*time.Second)
	v.SetDefault("session.ping_interval", 5*time.Second)
	v.SetDefault("session.buffer_size", 1000)

	v.SetDefault("kafka.topic_prefix", "thalex")
	v.SetDefault("kafka.client_id", "thalex-api")
	v.SetDefault("kafka.pool_size", 4)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel_prefix", "thalex")

	v.SetDefault("metrics.addr", ":2112")
	v.SetDefault("metrics.system_interval", 30*time.Second)
}

// Init wires v to the environment and, if present, the config file. An
// empty path searches $HOME and the working directory for .thalex.yaml. A
// missing default config file is not an error.
func Init(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		v.SetConfigName(".thalex")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
