package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		RateLimit      int      `yaml:"rateLimit"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql, postgres or empty to disable
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	Client struct {
		BackendURL string        `yaml:"backendURL"`
		APIKey     string        `yaml:"apiKey"`
		Session    string        `yaml:"session"`
		Timeout    time.Duration `yaml:"timeout"`
		Store      struct {
			Driver string `yaml:"driver"` // memory, file, sqlite, mysql, postgres, minio
			Path   string `yaml:"path"`
		} `yaml:"store"`
	} `yaml:"client"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"` // client name -> key
	} `yaml:"auth"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads the YAML file at path, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return parse(nil)
	}
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("LAWAGENT_BACKEND_URL"); v != "" {
		c.Client.BackendURL = v
	}
	if v := os.Getenv("LAWAGENT_API_KEY"); v != "" {
		c.Client.APIKey = v
	}
	if v := os.Getenv("LAWAGENT_SESSION"); v != "" {
		c.Client.Session = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Client.BackendURL == "" {
		c.Client.BackendURL = "http://localhost:8000"
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 90 * time.Second
	}
	if c.Client.Store.Driver == "" {
		c.Client.Store.Driver = "sqlite"
	}
	c.Client.Store.Driver = strings.ToLower(c.Client.Store.Driver)
	if c.Client.Store.Path == "" {
		c.Client.Store.Path = defaultStatePath(c.Client.Store.Driver)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate rejects unknown drivers.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Client.Store.Driver {
	case "memory", "file", "sqlite", "mysql", "postgres", "minio":
	default:
		return fmt.Errorf("unknown session store driver %q", c.Client.Store.Driver)
	}
	return nil
}

// ambil lokasi state di home user, fallback ke direktori kerja
func defaultStatePath(driver string) string {
	dir := ".lawagent"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".lawagent")
	}
	if driver == "sqlite" {
		return filepath.Join(dir, "state.db")
	}
	return filepath.Join(dir, "sessions")
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

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// MinioEnabled reports whether an object store is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}
