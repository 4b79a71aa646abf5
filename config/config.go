package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all daemon configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LND      LNDConfig      `mapstructure:"lnd"`
	Price    PriceConfig    `mapstructure:"price"`
	Peg      PegConfig      `mapstructure:"peg"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"` // false keeps designations in memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"` // false caches the rate in memory
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RateTTL  time.Duration `mapstructure:"rate_ttl"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LNDConfig struct {
	Host           string        `mapstructure:"host"` // host:port of the gRPC endpoint
	TLSCertPath    string        `mapstructure:"tls_cert_path"`
	MacaroonPath   string        `mapstructure:"macaroon_path"`
	PaymentTimeout time.Duration `mapstructure:"payment_timeout"`
	FeeLimitSat    int64         `mapstructure:"fee_limit_sat"`
}

type PriceConfig struct {
	Feeds            []string      `mapstructure:"feeds"` // bitstamp, coinbase, kraken
	Timeout          time.Duration `mapstructure:"timeout"`
	MinFetchInterval time.Duration `mapstructure:"min_fetch_interval"`
}

type PegConfig struct {
	Interval              time.Duration       `mapstructure:"interval"`
	PassTimeout           time.Duration       `mapstructure:"pass_timeout"`
	StabilityThresholdPct float64             `mapstructure:"stability_threshold_pct"`
	RiskSuspendThreshold  int                 `mapstructure:"risk_suspend_threshold"`
	RiskPenalty           int                 `mapstructure:"risk_penalty"`
	AutoDesignate         AutoDesignateConfig `mapstructure:"auto_designate"`
}

// AutoDesignateConfig controls pegging of channels that become ready without a designation.
type AutoDesignateConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Role         string `mapstructure:"role"`
	ExpectedFiat string `mapstructure:"expected_fiat"` // empty or "0" uses the receiver's value at open
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"` // empty disables API auth
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SCH_ (Stable CHannels).
// Nested keys use underscore: SCH_LND_HOST, SCH_PEG_INTERVAL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "stable_channels")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 5)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_ttl", "5m")
	v.SetDefault("lnd.host", "localhost:10009")
	v.SetDefault("lnd.tls_cert_path", "")
	v.SetDefault("lnd.macaroon_path", "")
	v.SetDefault("lnd.payment_timeout", "60s")
	v.SetDefault("lnd.fee_limit_sat", 10)
	v.SetDefault("price.feeds", []string{"bitstamp", "coinbase", "kraken"})
	v.SetDefault("price.timeout", "10s")
	v.SetDefault("price.min_fetch_interval", "5s")
	v.SetDefault("peg.interval", "30s")
	v.SetDefault("peg.pass_timeout", "90s")
	v.SetDefault("peg.stability_threshold_pct", 0.1)
	v.SetDefault("peg.risk_suspend_threshold", 100)
	v.SetDefault("peg.risk_penalty", 10)
	v.SetDefault("peg.auto_designate.enabled", false)
	v.SetDefault("peg.auto_designate.role", "STABLE_PROVIDER")
	v.SetDefault("peg.auto_designate.expected_fiat", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "stable-channels")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SCH_LND_HOST -> lnd.host
	v.SetEnvPrefix("SCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Peg.Interval <= 0 {
		return fmt.Errorf("peg.interval must be positive, got %s", c.Peg.Interval)
	}
	if c.Peg.PassTimeout <= 0 {
		return fmt.Errorf("peg.pass_timeout must be positive, got %s", c.Peg.PassTimeout)
	}
	if c.Peg.StabilityThresholdPct < 0 {
		return fmt.Errorf("peg.stability_threshold_pct must not be negative")
	}
	if c.Peg.RiskPenalty < 0 {
		return fmt.Errorf("peg.risk_penalty must not be negative")
	}
	if len(c.Price.Feeds) == 0 {
		return fmt.Errorf("price.feeds must name at least one feed")
	}
	return nil
}
