package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int               `yaml:"port"`
		CORSOrigins []string          `yaml:"corsOrigins"`
		APIKeys     map[string]string `yaml:"apiKeys"`
		RateLimit   struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	// Storage.Driver: memory | mysql | postgres | sqlite
	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"storage"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	History struct {
		Cap        int    `yaml:"cap"`
		TimeFormat string `yaml:"timeFormat"`
		Timezone   string `yaml:"timezone"`
	} `yaml:"history"`

	Validator struct {
		StrictLength    *bool `yaml:"strictLength"`
		EnforceOnSubmit bool  `yaml:"enforceOnSubmit"`
	} `yaml:"validator"`

	Client struct {
		BaseURL        string        `yaml:"baseURL"`
		APIKey         string        `yaml:"apiKey"`
		PollInterval   time.Duration `yaml:"pollInterval"`
		RequestTimeout time.Duration `yaml:"requestTimeout"`
		Bell           bool          `yaml:"bell"`
		ExportDir      string        `yaml:"exportDir"`
	} `yaml:"client"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load baca file config.yaml. File yang tidak ada = pakai default.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SIMTRACK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("SIMTRACK_DB_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("SIMTRACK_API_URL"); v != "" {
		c.Client.BaseURL = v
	}
	if v := os.Getenv("SIMTRACK_API_KEY"); v != "" {
		c.Client.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "simtrack.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.History.Cap <= 0 {
		c.History.Cap = 100
	}
	if c.History.TimeFormat == "" {
		c.History.TimeFormat = "15:04:05"
	}
	if c.History.Timezone == "" {
		c.History.Timezone = "Local"
	}
	if c.Validator.StrictLength == nil {
		strict := true
		c.Validator.StrictLength = &strict
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Client.PollInterval <= 0 {
		c.Client.PollInterval = 2 * time.Second
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = 10 * time.Second
	}
	if c.Client.ExportDir == "" {
		c.Client.ExportDir = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate cek nilai yang tidak bisa di-default
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if _, err := time.LoadLocation(c.History.Timezone); err != nil {
		return fmt.Errorf("history.timezone: %w", err)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return errors.New("minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	return nil
}

// StrictLength returns the validator mode (default true)
func (c *Config) StrictLength() bool {
	return c.Validator.StrictLength == nil || *c.Validator.StrictLength
}

// Location resolves History.Timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.History.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
