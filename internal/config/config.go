package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Reference ReferenceConfig `mapstructure:"reference"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Watcher   WatcherConfig   `mapstructure:"watcher"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// AuditConfig selects how scans are run
type AuditConfig struct {
	Mode        string `mapstructure:"mode"`        // quick or full
	Policy      string `mapstructure:"policy"`      // layered or permission
	Aggregation string `mapstructure:"aggregation"` // single or legacy
	Workers     int    `mapstructure:"workers"`     // 0 = GOMAXPROCS
	Locale      string `mapstructure:"locale"`

	// ArchiveRoots bounds the archive paths the daemon opens in full mode
	ArchiveRoots []string `mapstructure:"archive_roots"`
}

// ReferenceConfig lists the sources merged into the reference database, in
// load order
type ReferenceConfig struct {
	Builtin    bool     `mapstructure:"builtin"`
	Files      []string `mapstructure:"files"`
	SQLitePath string   `mapstructure:"sqlite_path"`
	Postgres   bool     `mapstructure:"postgres"`
}

// SnapshotConfig locates device snapshots exported by the on-device collector
type SnapshotConfig struct {
	Path      string `mapstructure:"path"`
	CheckRoot bool   `mapstructure:"check_root"`
	FSRoot    string `mapstructure:"fs_root"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TLS       bool          `mapstructure:"tls"`
	ReportTTL time.Duration `mapstructure:"report_ttl"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool               `mapstructure:"enabled"`
	URL        string             `mapstructure:"url"`
	StreamName string             `mapstructure:"stream_name"`
	Subjects   NATSSubjectsConfig `mapstructure:"subjects"`
}

type NATSSubjectsConfig struct {
	ScanCompleted  string `mapstructure:"scan_completed"`
	HighRiskApp    string `mapstructure:"high_risk_app"`
	DeviceFindings string `mapstructure:"device_findings"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// AuthConfig holds the API keys accepted by the local HTTP API. An empty list
// disables authentication.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// WatcherConfig configures the snapshot inbox
type WatcherConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	InboxDir  string        `mapstructure:"inbox_dir"`
	OutboxDir string        `mapstructure:"outbox_dir"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

// Load reads configuration from file and environment variables. A missing
// config file is not an error when no path is given; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/guardian-audit")
	}

	// Environment variables
	v.SetEnvPrefix("GUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("audit.mode", "GUARDIAN_AUDIT_MODE")
	v.BindEnv("audit.policy", "GUARDIAN_AUDIT_POLICY")
	v.BindEnv("audit.aggregation", "GUARDIAN_AUDIT_AGGREGATION")
	v.BindEnv("audit.workers", "GUARDIAN_AUDIT_WORKERS")
	v.BindEnv("audit.archive_roots", "GUARDIAN_AUDIT_ARCHIVE_ROOTS")
	v.BindEnv("redis.enabled", "GUARDIAN_REDIS_ENABLED")
	v.BindEnv("redis.host", "GUARDIAN_REDIS_HOST")
	v.BindEnv("redis.port", "GUARDIAN_REDIS_PORT")
	v.BindEnv("redis.password", "GUARDIAN_REDIS_PASSWORD")
	v.BindEnv("database.enabled", "GUARDIAN_DATABASE_ENABLED")
	v.BindEnv("database.host", "GUARDIAN_DATABASE_HOST")
	v.BindEnv("database.port", "GUARDIAN_DATABASE_PORT")
	v.BindEnv("database.user", "GUARDIAN_DATABASE_USER")
	v.BindEnv("database.password", "GUARDIAN_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "GUARDIAN_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "GUARDIAN_DATABASE_SSLMODE")
	v.BindEnv("reference.postgres", "GUARDIAN_REFERENCE_POSTGRES")
	v.BindEnv("reference.sqlite_path", "GUARDIAN_REFERENCE_SQLITE_PATH")
	v.BindEnv("nats.enabled", "GUARDIAN_NATS_ENABLED")
	v.BindEnv("nats.url", "GUARDIAN_NATS_URL")
	v.BindEnv("app.environment", "GUARDIAN_APP_ENVIRONMENT")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch strings.ToLower(c.Audit.Mode) {
	case "quick", "full":
	default:
		return fmt.Errorf("invalid audit.mode %q", c.Audit.Mode)
	}
	switch strings.ToLower(c.Audit.Policy) {
	case "layered", "permission":
	default:
		return fmt.Errorf("invalid audit.policy %q", c.Audit.Policy)
	}
	switch strings.ToLower(c.Audit.Aggregation) {
	case "single", "legacy":
	default:
		return fmt.Errorf("invalid audit.aggregation %q", c.Audit.Aggregation)
	}
	if c.Audit.Workers < 0 {
		return fmt.Errorf("invalid audit.workers %d", c.Audit.Workers)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "guardian-audit")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.http_port", 8090)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("audit.mode", "quick")
	v.SetDefault("audit.policy", "layered")
	v.SetDefault("audit.aggregation", "single")
	v.SetDefault("audit.workers", 0)
	v.SetDefault("audit.locale", "en")
	v.SetDefault("audit.archive_roots", []string{"/data/app"})

	v.SetDefault("reference.builtin", true)
	v.SetDefault("reference.files", []string{})
	v.SetDefault("reference.sqlite_path", "")
	v.SetDefault("reference.postgres", false)

	v.SetDefault("snapshot.path", "")
	v.SetDefault("snapshot.check_root", false)
	v.SetDefault("snapshot.fs_root", "/")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "guardian")
	v.SetDefault("database.dbname", "guardian")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.schema", "public")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "guardian:")
	v.SetDefault("redis.report_ttl", 7*24*time.Hour)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.stream_name", "GUARDIAN_AUDIT")
	v.SetDefault("nats.subjects.scan_completed", "audit.scan.completed")
	v.SetDefault("nats.subjects.high_risk_app", "audit.app.high_risk")
	v.SetDefault("nats.subjects.device_findings", "audit.device.findings")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.debounce", 500*time.Millisecond)
}
