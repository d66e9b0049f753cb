package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Rental    RentalConfig    `yaml:"rental"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`      // gRPC
	HTTPPort int    `yaml:"http_port"` // read API, health and metrics
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RedisConfig configures the stats cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	StatsTTLSeconds int    `yaml:"stats_ttl_seconds"`
}

// LedgerConfig selects and tunes the ledger gateway.
type LedgerConfig struct {
	Type              string  `yaml:"type"` // "rpc" or "mock"
	RPCURL            string  `yaml:"rpc_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// RentalConfig holds the financial and reputation policy.
type RentalConfig struct {
	FeeBasisPoints               int32  `yaml:"fee_basis_points"`
	LatePenaltyMultiplierBps     int64  `yaml:"late_penalty_multiplier_bps"`
	EscrowMode                   string `yaml:"escrow_mode"` // "prepaid" or "deposit"
	MaxRentalDays                int32  `yaml:"max_rental_days"`
	ReputationOnTimeReward       int64  `yaml:"reputation_on_time_reward"`
	ReputationLatePenaltyPerDay  int64  `yaml:"reputation_late_penalty_per_day"`
	ReputationMaxLatePenalty     int64  `yaml:"reputation_max_late_penalty"`
	ReputationExcellentThreshold int64  `yaml:"reputation_excellent_threshold"`
	ReputationGoodThreshold      int64  `yaml:"reputation_good_threshold"`
}

// SchedulerConfig contains cron specs for the cronjob binary
type SchedulerConfig struct {
	ReconcileSettlements string `yaml:"reconcile_settlements"`
	NotifyOverdueRentals string `yaml:"notify_overdue_rentals"`
	BatchSize            int32  `yaml:"batch_size"`
}

// AlertsConfig contains the ops alert mail settings
type AlertsConfig struct {
	SendGridAPIKey          string   `yaml:"sendgrid_api_key"`
	FromEmail               string   `yaml:"from_email"`
	FromName                string   `yaml:"from_name"`
	OpsEmail                []string `yaml:"ops_email"`
	StuckSettlementAttempts int32    `yaml:"stuck_settlement_attempts"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SERVER_HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.HTTPPort)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Ledger
	if val := os.Getenv("LEDGER_RPC_URL"); val != "" {
		c.Ledger.RPCURL = val
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGridAPIKey = val
	}
	if val := os.Getenv("OPS_EMAIL"); val != "" {
		c.Alerts.OpsEmail = strings.Split(val, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "nftrental"
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.Redis.StatsTTLSeconds == 0 {
		c.Redis.StatsTTLSeconds = 30
	}

	if c.Ledger.Type == "" {
		c.Ledger.Type = "mock"
	}
	if c.Ledger.TimeoutSeconds == 0 {
		c.Ledger.TimeoutSeconds = 15
	}
	if c.Ledger.InitialBackoffMs == 0 {
		c.Ledger.InitialBackoffMs = 500
	}
	if c.Ledger.MaxBackoffMs == 0 {
		c.Ledger.MaxBackoffMs = 10000
	}
	if c.Ledger.BackoffMultiplier == 0 {
		c.Ledger.BackoffMultiplier = 2.0
	}

	if c.Rental.EscrowMode == "" {
		c.Rental.EscrowMode = "prepaid"
	}
	if c.Rental.LatePenaltyMultiplierBps == 0 {
		c.Rental.LatePenaltyMultiplierBps = 10000
	}
	if c.Rental.MaxRentalDays == 0 {
		c.Rental.MaxRentalDays = 365
	}
	if c.Rental.ReputationOnTimeReward == 0 {
		c.Rental.ReputationOnTimeReward = 1
	}
	if c.Rental.ReputationLatePenaltyPerDay == 0 {
		c.Rental.ReputationLatePenaltyPerDay = 1
	}
	if c.Rental.ReputationMaxLatePenalty == 0 {
		c.Rental.ReputationMaxLatePenalty = 10
	}
	if c.Rental.ReputationExcellentThreshold == 0 {
		c.Rental.ReputationExcellentThreshold = 50
	}
	if c.Rental.ReputationGoodThreshold == 0 {
		c.Rental.ReputationGoodThreshold = 10
	}

	if c.Scheduler.ReconcileSettlements == "" {
		c.Scheduler.ReconcileSettlements = "0 */5 * * * *"
	}
	if c.Scheduler.NotifyOverdueRentals == "" {
		c.Scheduler.NotifyOverdueRentals = "0 0 * * * *"
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 100
	}

	if c.Alerts.FromName == "" {
		c.Alerts.FromName = "NFT Rental Ops"
	}
	if c.Alerts.StuckSettlementAttempts == 0 {
		c.Alerts.StuckSettlementAttempts = 5
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 characters")
	}

	switch c.Ledger.Type {
	case "mock":
	case "rpc":
		if c.Ledger.RPCURL == "" {
			return fmt.Errorf("ledger rpc_url is required for the rpc gateway")
		}
	default:
		return fmt.Errorf("invalid ledger type: %s", c.Ledger.Type)
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("ledger max_retries must not be negative")
	}

	if c.Rental.FeeBasisPoints < 0 || c.Rental.FeeBasisPoints > 10000 {
		return fmt.Errorf("fee_basis_points must be between 0 and 10000: %d", c.Rental.FeeBasisPoints)
	}
	if c.Rental.LatePenaltyMultiplierBps < 0 {
		return fmt.Errorf("late_penalty_multiplier_bps must not be negative")
	}
	if c.Rental.EscrowMode != "prepaid" && c.Rental.EscrowMode != "deposit" {
		return fmt.Errorf("invalid escrow mode: %s", c.Rental.EscrowMode)
	}
	if c.Rental.MaxRentalDays < 1 || c.Rental.MaxRentalDays > 365 {
		return fmt.Errorf("max_rental_days must be between 1 and 365: %d", c.Rental.MaxRentalDays)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetServerAddress returns the gRPC listen address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetHTTPAddress returns the HTTP listen address
func (c *ServerConfig) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

func (c *JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Minute
}

func (c *RedisConfig) StatsTTL() time.Duration {
	return time.Duration(c.StatsTTLSeconds) * time.Second
}

func (c *LedgerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
