package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Horizon   HorizonConfig   `mapstructure:"horizon"`
	Collector CollectorConfig `mapstructure:"collector"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Neo4J     Neo4JConfig     `mapstructure:"neo4j"`
	NATS      NATSConfig      `mapstructure:"nats"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env            string `mapstructure:"env"`
	LogLevel       string `mapstructure:"log_level"`
	HTTPPort       int    `mapstructure:"http_port"`
	WorkerPoolSize int    `mapstructure:"worker_pool_size"`
}

// HorizonConfig represents the ledger API client configuration
type HorizonConfig struct {
	URL                string        `mapstructure:"url"`
	PageSize           int           `mapstructure:"page_size"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay"`
}

// CollectorConfig represents the network collection defaults
type CollectorConfig struct {
	MaxDepth           int `mapstructure:"max_depth"`
	MaxAccounts        int `mapstructure:"max_accounts"`
	MaxPagesPerAccount int `mapstructure:"max_pages_per_account"`
	MinClusterSize     int `mapstructure:"min_cluster_size"`
}

// CacheConfig represents the page cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// Neo4JConfig represents Neo4J configuration
type Neo4JConfig struct {
	Enabled                      bool          `mapstructure:"enabled"`
	URI                          string        `mapstructure:"uri"`
	Username                     string        `mapstructure:"username"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	ConnectTimeout               time.Duration `mapstructure:"connect_timeout"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	URL               string        `mapstructure:"url"`
	StreamName        string        `mapstructure:"stream_name"`
	SubjectPrefix     string        `mapstructure:"subject_prefix"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/stellar-network-explorer")

	// Environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("")

	// Map environment variables to nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Default values
	setDefaults()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.http_port", 8080)
	viper.SetDefault("app.worker_pool_size", 10)

	// Horizon defaults
	viper.SetDefault("horizon.url", "https://horizon.stellar.org")
	viper.SetDefault("horizon.page_size", 200)
	viper.SetDefault("horizon.rate_limit_per_minute", 100)
	viper.SetDefault("horizon.request_timeout", "30s")
	viper.SetDefault("horizon.max_retries", 3)
	viper.SetDefault("horizon.retry_delay", "2s")

	// Collector defaults
	viper.SetDefault("collector.max_depth", 2)
	viper.SetDefault("collector.max_accounts", 100)
	viper.SetDefault("collector.max_pages_per_account", 25)
	viper.SetDefault("collector.min_cluster_size", 3)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", "1h")

	// Neo4J defaults
	viper.SetDefault("neo4j.enabled", false)
	viper.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.connect_timeout", "10s")
	viper.SetDefault("neo4j.max_connection_pool_size", 50)
	viper.SetDefault("neo4j.connection_acquisition_timeout", "60s")

	// NATS defaults
	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.stream_name", "COLLECTIONS")
	viper.SetDefault("nats.subject_prefix", "stellar.network")
	viper.SetDefault("nats.connect_timeout", "10s")
	viper.SetDefault("nats.reconnect_attempts", 5)
	viper.SetDefault("nats.reconnect_delay", "2s")

	// Bind env for external endpoints
	viper.BindEnv("horizon.url", "HORIZON_URL")
	viper.BindEnv("nats.url", "NATS_URL")
}
