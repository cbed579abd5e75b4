package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ServiceName    = "VERTA AI Meeting Intelligence API"
	ServiceVersion = "1.0.0"
)

var DefaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}

// Config is built once at startup and passed to every component that needs it.
// It is never mutated after LoadConfig returns.
type Config struct {
	Port            string        `yaml:"port"`
	Production      bool          `yaml:"production"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RecentRuns sizes the in-process run cache used when Valkey is off.
	RecentRuns int          `yaml:"recent_runs"`
	AI         AIConfig     `yaml:"ai"`
	Uploads    UploadConfig `yaml:"uploads"`
	S3         S3Config     `yaml:"s3"`
	Valkey     ValkeyConfig `yaml:"valkey"`
	Postgres   PGConfig     `yaml:"postgres"`
}

type AIConfig struct {
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	Models       []string      `yaml:"models"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

type UploadConfig struct {
	Folder    string        `yaml:"folder"`
	Retention time.Duration `yaml:"retention"`
	SweepSpec string        `yaml:"sweep_spec"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type ValkeyConfig struct {
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	UseSentinel        bool     `yaml:"use_sentinel"`
	SentinelAddresses  []string `yaml:"sentinel_addresses"`
	SentinelMasterName string   `yaml:"sentinel_master_name"`
}

type PGConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
	SSLMode  string `yaml:"sslmode"`
}

// AIEnabled reports whether an API key was supplied.
func (c *Config) AIEnabled() bool { return c.AI.GeminiAPIKey != "" }

func (c *Config) S3Enabled() bool { return c.S3.Bucket != "" }

func (c *Config) ValkeyEnabled() bool {
	return c.Valkey.Host != "" || (c.Valkey.UseSentinel && len(c.Valkey.SentinelAddresses) > 0)
}

func (c *Config) PostgresEnabled() bool { return c.Postgres.Host != "" }

// Environment labels the deployment for health output.
func (c *Config) Environment() string {
	if c.Production {
		return "production"
	}
	return "development"
}

// LoadConfig reads the optional YAML file named by CONFIG_FILE, then applies
// environment variables on top of it and fills defaults.
func LoadConfig() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	if os.Getenv("RENDER") != "" {
		c.Production = true
	}
	c.ShutdownTimeout = GetEnvDurationOrDefault("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.RecentRuns = GetEnvIntOrDefault("RECENT_RUNS_SIZE", c.RecentRuns)

	setString(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	if models := SplitCSV(os.Getenv("GEMINI_MODELS")); len(models) > 0 {
		c.AI.Models = models
	}
	c.AI.HTTPTimeout = GetEnvDurationOrDefault("GEMINI_HTTP_TIMEOUT", c.AI.HTTPTimeout)

	setString(&c.Uploads.Folder, "UPLOAD_FOLDER")
	c.Uploads.Retention = GetEnvDurationOrDefault("UPLOAD_RETENTION", c.Uploads.Retention)
	setString(&c.Uploads.SweepSpec, "UPLOAD_SWEEP_SPEC")

	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Endpoint, "S3_ENDPOINT_URL")
	setString(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")

	setString(&c.Valkey.Host, "VALKEY_HOST")
	setString(&c.Valkey.Port, "VALKEY_PORT")
	if GetEnvBool("VALKEY_USE_SENTINEL") {
		c.Valkey.UseSentinel = true
	}
	if addrs := SplitCSV(os.Getenv("VALKEY_SENTINEL_ADDRESS")); len(addrs) > 0 {
		c.Valkey.SentinelAddresses = addrs
	}
	setString(&c.Valkey.SentinelMasterName, "VALKEY_SENTINEL_MASTER_NAME")

	setString(&c.Postgres.Host, "POSTGRES_HOST")
	setString(&c.Postgres.Port, "POSTGRES_PORT")
	setString(&c.Postgres.User, "POSTGRES_USER")
	setString(&c.Postgres.Password, "POSTGRES_PASSWORD")
	setString(&c.Postgres.DB, "POSTGRES_DB")
	setString(&c.Postgres.SSLMode, "POSTGRES_SSLMODE")
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "5000"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.RecentRuns <= 0 {
		c.RecentRuns = 500
	}
	if len(c.AI.Models) == 0 {
		c.AI.Models = append([]string(nil), DefaultGeminiModels...)
	}
	if c.AI.HTTPTimeout <= 0 {
		c.AI.HTTPTimeout = 5 * time.Minute
	}
	if c.Uploads.Folder == "" {
		c.Uploads.Folder = "/tmp/uploads"
	}
	if c.Uploads.Retention <= 0 {
		c.Uploads.Retention = time.Hour
	}
	if c.Uploads.SweepSpec == "" {
		c.Uploads.SweepSpec = "@every 10m"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.Valkey.Port == "" {
		c.Valkey.Port = "6379"
	}
	if c.Valkey.SentinelMasterName == "" {
		c.Valkey.SentinelMasterName = "mymaster"
	}
	if c.Postgres.Port == "" {
		c.Postgres.Port = "5432"
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
}

func (c *Config) validate() error {
	if c.S3Enabled() && (c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3 credentials are required when S3_BUCKET is set (set S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY)")
	}
	if c.Valkey.UseSentinel && len(c.Valkey.SentinelAddresses) == 0 {
		return fmt.Errorf("VALKEY_USE_SENTINEL is true but VALKEY_SENTINEL_ADDRESS is not set")
	}
	if c.PostgresEnabled() && (c.Postgres.User == "" || c.Postgres.DB == "") {
		return fmt.Errorf("POSTGRES_USER and POSTGRES_DB are required when POSTGRES_HOST is set")
	}
	return nil
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}
