package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Face     FaceConfig     `mapstructure:"face"`
	AES      AESConfig      `mapstructure:"aes"`
	Market   MarketConfig   `mapstructure:"market"`
	CoinCap  CoinCapConfig  `mapstructure:"coincap"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      LogConfig      `mapstructure:"log"`
	Swagger  SwaggerConfig  `mapstructure:"swagger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// LockTimeout bounds how long a settlement waits for a wallet row lock.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig controls persisted bearer tokens. TokenTTL 0 means tokens never expire.
type AuthConfig struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// FaceConfig controls face matching and the short-lived verification ticket.
type FaceConfig struct {
	Tolerance    float64       `mapstructure:"tolerance"`
	TicketSecret string        `mapstructure:"ticket_secret"`
	TicketTTL    time.Duration `mapstructure:"ticket_ttl"`
	Issuer       string        `mapstructure:"issuer"`
}

// AESConfig holds the sealing key for secrets at rest. RetiredKeys only
// decrypt, which lets operators rotate Key without re-encrypting rows.
type AESConfig struct {
	Key         string   `mapstructure:"key"`
	RetiredKeys []string `mapstructure:"retired_keys"`
}

type MarketConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"` // 0 disables the background loop
	SimulateOnRead bool          `mapstructure:"simulate_on_read"`
	HistoryPoints  int           `mapstructure:"history_points"`
}

type CoinCapConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

// AdminConfig guards /system endpoints. An empty token disables them.
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

type SwaggerConfig struct {
	SpecPath string `mapstructure:"spec_path"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: ARC_.
// Nested keys use underscore: ARC_DATABASE_HOST, ARC_FACE_TICKET_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("ARC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars and defaults can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Market.HistoryPoints <= 0 {
		cfg.Market.HistoryPoints = 100
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "arc_exchange")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.lock_timeout", "5s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", "0s")

	v.SetDefault("face.tolerance", 0.6)
	v.SetDefault("face.ticket_secret", "")
	v.SetDefault("face.ticket_ttl", "2m")
	v.SetDefault("face.issuer", "arc-exchange")

	v.SetDefault("aes.key", "")

	v.SetDefault("market.tick_interval", "0s")
	v.SetDefault("market.simulate_on_read", true)
	v.SetDefault("market.history_points", 100)

	v.SetDefault("coincap.base_url", "https://rest.coincap.io/v3")
	v.SetDefault("coincap.api_key", "")
	v.SetDefault("coincap.timeout", "10s")
	v.SetDefault("coincap.cache_ttl", "5m")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "arc.exchange.events")
	v.SetDefault("kafka.client_id", "arc-exchange")

	v.SetDefault("admin.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("swagger.spec_path", "api/openapi.yaml")
}
