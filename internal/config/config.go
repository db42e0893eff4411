package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Run       RunConfig       `yaml:"run"`
	Source    SourceConfig    `yaml:"source"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// RunConfig holds batch run parameters
type RunConfig struct {
	// AsOf pins the reference date used for tenure calculations ("2006-01-02").
	// Empty means the runner passes its own start time.
	AsOf string `yaml:"as_of"`
	TopN int    `yaml:"top_n"`
}

// ReferenceTime resolves the configured reference date, falling back to the
// given default when unset.
func (c RunConfig) ReferenceTime(fallback time.Time) (time.Time, error) {
	if c.AsOf == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing run.as_of: %w", err)
	}
	return t, nil
}

// SourceConfig selects where the three input relations come from
type SourceConfig struct {
	Type           string `yaml:"type"` // "local", "http", "snowflake", "postgres"
	LocalDir       string `yaml:"local_dir"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SnowflakeConfig holds Snowflake configuration for warehouse-backed inputs
type SnowflakeConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Enabled   bool   `yaml:"enabled"`
}

// PostgresConfig holds Postgres configuration for inputs and the run ledger
type PostgresConfig struct {
	DatabaseURL string `yaml:"database_url"`
	Enabled     bool   `yaml:"enabled"`
}

// ArtifactsConfig holds artifact publisher configuration
type ArtifactsConfig struct {
	Type       string `yaml:"type"` // "local" or "s3"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c ArtifactsConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// CacheConfig holds Redis snapshot cache configuration
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Run.TopN == 0 {
		cfg.Run.TopN = 10
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "local"
	}
	if cfg.Source.LocalDir == "" {
		cfg.Source.LocalDir = "./data"
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = 60
	}
	if cfg.Snowflake.Database == "" {
		cfg.Snowflake.Database = "CUSTOMER_INTELLIGENCE"
	}
	if cfg.Snowflake.Schema == "" {
		cfg.Snowflake.Schema = "ANALYTICS"
	}
	if cfg.Artifacts.Type == "" {
		cfg.Artifacts.Type = "local"
	}
	if cfg.Artifacts.LocalPath == "" {
		cfg.Artifacts.LocalPath = "./out"
	}
	if cfg.Artifacts.S3Prefix == "" {
		cfg.Artifacts.S3Prefix = "kpis"
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if baseURL := os.Getenv("SOURCE_BASE_URL"); baseURL != "" {
		cfg.Source.BaseURL = baseURL
	}
	if srcType := os.Getenv("SOURCE_TYPE"); srcType != "" {
		cfg.Source.Type = srcType
	}
	if account := os.Getenv("SNOWFLAKE_ACCOUNT"); account != "" {
		cfg.Snowflake.Account = account
	}
	if user := os.Getenv("SNOWFLAKE_USER"); user != "" {
		cfg.Snowflake.User = user
	}
	if password := os.Getenv("SNOWFLAKE_PASSWORD"); password != "" {
		cfg.Snowflake.Password = password
	}
	if warehouse := os.Getenv("SNOWFLAKE_WAREHOUSE"); warehouse != "" {
		cfg.Snowflake.Warehouse = warehouse
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Postgres.DatabaseURL = dbURL
		if !cfg.Postgres.Enabled {
			cfg.Postgres.Enabled = true
		}
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.Addr = addr
		if !cfg.Cache.Enabled {
			cfg.Cache.Enabled = true
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Cache.Password = password
	}

	if bucket := os.Getenv("ARTIFACTS_S3_BUCKET"); bucket != "" {
		cfg.Artifacts.S3Bucket = bucket
		cfg.Artifacts.Type = "s3"
	}
	if region := os.Getenv("ARTIFACTS_S3_REGION"); region != "" {
		cfg.Artifacts.AWSRegion = region
	}

	return cfg, nil
}
