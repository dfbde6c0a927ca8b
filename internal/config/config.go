package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidPort     = errors.New("server.port must be between 1 and 65535")
	ErrInvalidDriver   = errors.New("database.driver must be postgres, mysql or sqlite")
	ErrInvalidStorage  = errors.New("storage.driver must be minio or memory")
	ErrMissingEndpoint = errors.New("minio.endpoint is required for the minio storage driver")
	ErrMissingAIKey    = errors.New("ai.api_key is required")
	ErrInvalidMaxBytes = errors.New("upload.max_bytes must be positive")
	ErrDuplicateAPIKey = errors.New("server.api_keys contains a key shared by two owners")
	ErrInvalidTemp     = errors.New("ai.temperature must be between 0 and 2")
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Minio    MinioConfig    `yaml:"minio"`
	AI       AIConfig       `yaml:"ai"`
	Upload   UploadConfig   `yaml:"upload"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// APIKeys maps owner id to bearer key
	APIKeys         map[string]string `yaml:"api_keys"`
	CORSOrigins     []string          `yaml:"cors_origins"`
	RateLimit       int               `yaml:"rate_limit"`
	RateRefill      time.Duration     `yaml:"rate_refill"`
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// Path is the sqlite file, or ":memory:"
	Path string `yaml:"path"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type MinioConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	BucketName    string `yaml:"bucketName"`
	Region        string `yaml:"region"`
	UseSSL        bool   `yaml:"useSSL"`
	PublicBaseURL string `yaml:"publicBaseURL"`
}

type AIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	// Temperature is a pointer so an explicit 0 survives defaulting.
	Temperature *float32      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load baca file config (optional when path is empty), lalu env override dan default
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 30
	}
	if cfg.Server.RateRefill == 0 {
		cfg.Server.RateRefill = 2 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 90 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Port == 0 {
		switch cfg.Database.Driver {
		case "mysql":
			cfg.Database.Port = 3306
		case "postgres":
			cfg.Database.Port = 5432
		}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/medscan.db"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "minio"
	}
	if cfg.Minio.BucketName == "" {
		cfg.Minio.BucketName = "medical-scans"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://ai.gateway.lovable.dev/v1"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "google/gemini-2.5-flash"
	}
	if cfg.AI.Temperature == nil {
		t := float32(0.3)
		cfg.AI.Temperature = &t
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MEDSCAN_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEDSCAN_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("MEDSCAN_API_KEYS"); v != "" {
		keys, err := parseAPIKeys(v)
		if err != nil {
			return err
		}
		cfg.Server.APIKeys = keys
	}
	setString(&cfg.Database.Driver, "MEDSCAN_DB_DRIVER")
	setString(&cfg.Database.Host, "MEDSCAN_DB_HOST")
	setString(&cfg.Database.User, "MEDSCAN_DB_USER")
	setString(&cfg.Database.Password, "MEDSCAN_DB_PASSWORD")
	setString(&cfg.Database.Name, "MEDSCAN_DB_NAME")
	setString(&cfg.Database.Path, "MEDSCAN_DB_PATH")
	if v := os.Getenv("MEDSCAN_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEDSCAN_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}
	setString(&cfg.Storage.Driver, "MEDSCAN_STORAGE_DRIVER")
	setString(&cfg.Minio.Endpoint, "MEDSCAN_MINIO_ENDPOINT")
	setString(&cfg.Minio.AccessKey, "MEDSCAN_MINIO_ACCESS_KEY")
	setString(&cfg.Minio.SecretKey, "MEDSCAN_MINIO_SECRET_KEY")
	setString(&cfg.Minio.BucketName, "MEDSCAN_MINIO_BUCKET")
	setString(&cfg.Minio.PublicBaseURL, "MEDSCAN_MINIO_PUBLIC_BASE_URL")
	setString(&cfg.AI.BaseURL, "MEDSCAN_AI_BASE_URL")
	setString(&cfg.AI.APIKey, "MEDSCAN_AI_API_KEY")
	setString(&cfg.AI.Model, "MEDSCAN_AI_MODEL")
	if v := os.Getenv("MEDSCAN_AI_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("MEDSCAN_AI_TEMPERATURE: %w", err)
		}
		t := float32(f)
		cfg.AI.Temperature = &t
	}
	if v := os.Getenv("MEDSCAN_AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MEDSCAN_AI_TIMEOUT: %w", err)
		}
		cfg.AI.Timeout = d
	}
	setString(&cfg.Logging.Level, "MEDSCAN_LOG_LEVEL")
	setString(&cfg.Logging.Format, "MEDSCAN_LOG_FORMAT")
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// parseAPIKeys reads "owner:key,owner2:key2"
func parseAPIKeys(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		owner, key, ok := strings.Cut(pair, ":")
		if !ok || owner == "" || key == "" {
			return nil, fmt.Errorf("MEDSCAN_API_KEYS: malformed entry %q", pair)
		}
		out[owner] = key
	}
	return out, nil
}

// Validate checks the settings needed to serve.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "minio":
		if c.Minio.Endpoint == "" {
			return ErrMissingEndpoint
		}
	case "memory":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorage, c.Storage.Driver)
	}
	if c.AI.APIKey == "" {
		return ErrMissingAIKey
	}
	if c.Upload.MaxBytes <= 0 {
		return ErrInvalidMaxBytes
	}
	if t := c.AI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return ErrInvalidTemp
	}
	seen := map[string]bool{}
	for _, key := range c.Server.APIKeys {
		if seen[key] {
			return ErrDuplicateAPIKey
		}
		seen[key] = true
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
