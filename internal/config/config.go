package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/chesko21/tiktok-live-connector/pkg/config"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Upstream  UpstreamConfig
	Catalog   CatalogConfig
	Kafka     KafkaConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	// PublicBaseURL is the externally reachable base URL of the connect
	// endpoint, announced at startup for overlay pages to point at.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type UpstreamConfig struct {
	SignAPIKey     string        `mapstructure:"sign_api_key"`
	SignBaseURL    string        `mapstructure:"sign_base_url"`
	WebcastBaseURL string        `mapstructure:"webcast_base_url"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

type CatalogConfig struct {
	// LoadTimeout bounds the startup gift-list fetch.
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
	// RedisAddress enables the snapshot store when non-empty.
	RedisAddress  string        `mapstructure:"redis_address"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	SnapshotKey   string        `mapstructure:"snapshot_key"`
	SnapshotTTL   time.Duration `mapstructure:"snapshot_ttl"`
}

type KafkaConfig struct {
	// Brokers enables the Kafka event sink when non-empty.
	Brokers    string
	Topic      string
	Partitions int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.public_base_url", "http://localhost:3001")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("upstream.sign_base_url", "https://tiktok.eulerstream.com")
	v.SetDefault("upstream.webcast_base_url", "https://webcast.tiktok.com/webcast")
	v.SetDefault("upstream.http_timeout", "15s")
	v.SetDefault("catalog.load_timeout", "20s")
	v.SetDefault("catalog.redis_address", "")
	v.SetDefault("catalog.redis_password", "")
	v.SetDefault("catalog.redis_db", 0)
	v.SetDefault("catalog.snapshot_key", "relay:gift_catalog")
	v.SetDefault("catalog.snapshot_ttl", "168h")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "live-events")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("log.level", "info")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.public_base_url", "SERVER_PUBLIC_BASE_URL")
	v.BindEnv("upstream.sign_api_key", "EULER_API_KEY")
	v.BindEnv("upstream.sign_base_url", "UPSTREAM_SIGN_BASE_URL")
	v.BindEnv("upstream.webcast_base_url", "UPSTREAM_WEBCAST_BASE_URL")
	v.BindEnv("catalog.redis_address", "CATALOG_REDIS_ADDRESS")
	v.BindEnv("catalog.redis_password", "CATALOG_REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("kafka.partitions", "KAFKA_PARTITIONS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Upstream.HTTPTimeout = parseDuration(v, "upstream.http_timeout", 15*time.Second)
	cfg.Catalog.LoadTimeout = parseDuration(v, "catalog.load_timeout", 20*time.Second)
	cfg.Catalog.SnapshotTTL = parseDuration(v, "catalog.snapshot_ttl", 168*time.Hour)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
