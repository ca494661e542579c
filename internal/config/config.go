package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Classifier struct {
		// APIKey from the config file wins over the environment; see
		// Credential().
		APIKey         string `yaml:"apiKey"`
		Model          string `yaml:"model"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		// ReferenceDate pins the expiry-comparison date in the prompt
		// (YYYY-MM-DD); empty means the wall clock.
		ReferenceDate string `yaml:"referenceDate"`
	} `yaml:"classifier"`

	Store struct {
		// Backend: file (default), mysql, postgres.
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`

		Database struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
			SSLMode  string `yaml:"sslMode"`
		} `yaml:"database"`
	} `yaml:"store"`

	Evidence struct {
		// Backend: local (default), minio.
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`

		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"evidence"`

	Review struct {
		SessionTTLMinutes int `yaml:"sessionTTLMinutes"`
	} `yaml:"review"`
}

// Load reads the config file and applies environment overrides.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No file: run on defaults plus environment.
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = "local"
	}
	return &cfg, nil
}

// Credential resolves the classifier API key: the user-scoped config file
// first, then the process environment. Empty means the caller must reject
// the request before any classification is attempted.
func (c *Config) Credential() string {
	if c.Classifier.APIKey != "" {
		return c.Classifier.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ClassifierTimeout bounds the outbound classifier call.
func (c *Config) ClassifierTimeout() time.Duration {
	if c.Classifier.TimeoutSeconds <= 0 {
		return 45 * time.Second
	}
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// ReferenceDate parses the pinned prompt date; zero when unset or invalid.
func (c *Config) ReferenceDate() time.Time {
	if c.Classifier.ReferenceDate == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", c.Classifier.ReferenceDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SessionTTL for idle review sessions.
func (c *Config) SessionTTL() time.Duration {
	if c.Review.SessionTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Review.SessionTTLMinutes) * time.Minute
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	d := c.Store.Database
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// PostgresDSN builds the Postgres connection string.
func (c *Config) PostgresDSN() string {
	d := c.Store.Database
	ssl := d.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, ssl)
}
