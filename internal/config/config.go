// Package config loads the static process configuration: defaults first,
// then environment variables, then an optional config.yaml. Nothing is
// hot-reloaded; every knob is fixed at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/freightpulse/freightpulse/internal/metrics"
)

var validate = validator.New()

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Host           string        `yaml:"host" json:"host"`
	Port           int           `yaml:"port" json:"port" validate:"gt=0,lte=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// StreamConfig configures the tick cadence and per-subscriber delivery.
type StreamConfig struct {
	// TickInterval is the cadence of advance-and-broadcast cycles.
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval" validate:"gt=0"`
	// QueueDepth bounds each subscriber's outbound queue; a subscriber
	// whose queue fills up is treated as failed and unregistered.
	QueueDepth int `yaml:"queue_depth" json:"queue_depth" validate:"gte=1"`
	// WriteTimeout bounds one websocket write to a subscriber.
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" validate:"gt=0"`
	PingInterval   time.Duration `yaml:"ping_interval" json:"ping_interval" validate:"gt=0"`
	PongTimeout    time.Duration `yaml:"pong_timeout" json:"pong_timeout" validate:"gt=0"`
	MaxMessageSize int64         `yaml:"max_message_size" json:"max_message_size" validate:"gt=0"`
}

// SimulatorConfig seeds the KPI walk.
type SimulatorConfig struct {
	// Seed fixes the random source; zero means derive from the clock.
	Seed int64 `yaml:"seed" json:"seed"`
	// Fields overrides the per-field walk parameters.
	Fields map[string]metrics.FieldParams `yaml:"fields" json:"fields"`
}

// KafkaConfig configures the optional KPI feed publisher.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Stream    StreamConfig    `yaml:"stream" json:"stream"`
	Simulator SimulatorConfig `yaml:"simulator" json:"simulator"`
	Kafka     KafkaConfig     `yaml:"kafka" json:"kafka"`
}

// LoadConfig assembles the configuration and validates it.
func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Stream: StreamConfig{
			TickInterval:   3 * time.Second,
			QueueDepth:     16,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			PongTimeout:    60 * time.Second,
			MaxMessageSize: 512,
		},
		Simulator: SimulatorConfig{
			Fields: metrics.DefaultFieldParams(),
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "freightpulse.kpi",
		},
	}

	// Environment overrides.
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		config.Server.Port = port
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if interval, err := time.ParseDuration(os.Getenv("TICK_INTERVAL")); err == nil {
		config.Stream.TickInterval = interval
	}
	if depth, err := strconv.Atoi(os.Getenv("STREAM_QUEUE_DEPTH")); err == nil {
		config.Stream.QueueDepth = depth
	}
	if timeout, err := time.ParseDuration(os.Getenv("STREAM_WRITE_TIMEOUT")); err == nil {
		config.Stream.WriteTimeout = timeout
	}
	if seed, err := strconv.ParseInt(os.Getenv("SIMULATOR_SEED"), 10, 64); err == nil {
		config.Simulator.Seed = seed
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		config.Kafka.Topic = topic
	}
	if enabled := os.Getenv("KAFKA_ENABLED"); enabled != "" {
		config.Kafka.Enabled = enabled == "true"
	}

	// Optional config file overrides.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/freightpulse")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if viper.IsSet("server.host") {
			config.Server.Host = viper.GetString("server.host")
		}
		if viper.IsSet("server.port") {
			config.Server.Port = viper.GetInt("server.port")
		}
		if viper.IsSet("server.allowed_origins") {
			config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
		}
		if viper.IsSet("stream.tick_interval") {
			config.Stream.TickInterval = viper.GetDuration("stream.tick_interval")
		}
		if viper.IsSet("stream.queue_depth") {
			config.Stream.QueueDepth = viper.GetInt("stream.queue_depth")
		}
		if viper.IsSet("stream.write_timeout") {
			config.Stream.WriteTimeout = viper.GetDuration("stream.write_timeout")
		}
		if viper.IsSet("stream.ping_interval") {
			config.Stream.PingInterval = viper.GetDuration("stream.ping_interval")
		}
		if viper.IsSet("stream.pong_timeout") {
			config.Stream.PongTimeout = viper.GetDuration("stream.pong_timeout")
		}
		if viper.IsSet("stream.max_message_size") {
			config.Stream.MaxMessageSize = viper.GetInt64("stream.max_message_size")
		}
		if viper.IsSet("simulator.seed") {
			config.Simulator.Seed = viper.GetInt64("simulator.seed")
		}
		if viper.IsSet("simulator.fields") {
			if err := viper.UnmarshalKey("simulator.fields", &config.Simulator.Fields); err != nil {
				return nil, fmt.Errorf("failed to parse simulator fields: %w", err)
			}
		}
		if viper.IsSet("kafka.enabled") {
			config.Kafka.Enabled = viper.GetBool("kafka.enabled")
		}
		if viper.IsSet("kafka.brokers") {
			config.Kafka.Brokers = viper.GetStringSlice("kafka.brokers")
		}
		if viper.IsSet("kafka.topic") {
			config.Kafka.Topic = viper.GetString("kafka.topic")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the structural constraints and the simulator parameter
// set. A failure here is fatal at startup.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := metrics.ValidateParams(c.Simulator.Fields); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("invalid configuration: kafka enabled with no brokers")
	}
	return nil
}
