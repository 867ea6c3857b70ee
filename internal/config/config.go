package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the iiifsearch configuration.
type Config struct {
	HTTP     HTTPConfig    `yaml:"http"`
	Solr     SolrConfig    `yaml:"solr"`
	IIIF     IIIFConfig    `yaml:"iiif"`
	Services []string      `yaml:"services"`
	Logging  LoggingConfig `yaml:"logging"`
	Tracing  TracingConfig `yaml:"tracing"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	SampleRatio float64 `yaml:"sample_ratio"` // share of root spans kept, 0..1
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SolrConfig holds search engine connection settings.
type SolrConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Core       string `yaml:"core"`
	MaxRows    int    `yaml:"max_rows"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// BaseURL returns the scheme://host:port the Solr client talks to.
func (s SolrConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IIIFConfig holds the public URLs embedded in search responses.
type IIIFConfig struct {
	BaseURL             string `yaml:"base_url"`
	ManifestServerURL   string `yaml:"manifest_server_url"`
	ManifestSearchURL   string `yaml:"manifest_search_url"`
	CollectionSearchURL string `yaml:"collection_search_url"`
	ImageServerURL      string `yaml:"image_server_url"`
}

// serviceTypes maps every runnable service name to its type.
var serviceTypes = map[string]string{
	"web": "web",
}

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a single YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv exports variables from .env files into the process environment.
// Missing files are ignored; variables already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3333
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Solr.Host == "" {
		c.Solr.Host = "localhost"
	}
	if c.Solr.Port <= 0 {
		c.Solr.Port = 8983
	}
	if c.Solr.Core == "" {
		c.Solr.Core = "iiif"
	}
	if c.Solr.MaxRows <= 0 {
		c.Solr.MaxRows = 100
	}
	if c.Solr.TimeoutSec <= 0 {
		c.Solr.TimeoutSec = 30
	}

	base := strings.TrimRight(c.IIIF.BaseURL, "/")
	if base != "" {
		if c.IIIF.ManifestSearchURL == "" {
			c.IIIF.ManifestSearchURL = base + "/iiif/search/manifest"
		}
		if c.IIIF.CollectionSearchURL == "" {
			c.IIIF.CollectionSearchURL = base + "/iiif/search/collection"
		}
		if c.IIIF.ImageServerURL == "" {
			c.IIIF.ImageServerURL = base
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.IIIF.BaseURL == "" {
		return fmt.Errorf("iiif.base_url is required")
	}
	if c.IIIF.ManifestServerURL == "" {
		return fmt.Errorf("iiif.manifest_server_url is required")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %v", c.Tracing.SampleRatio)
	}
	return c.validateServices()
}

// HasService reports whether the named service is configured to run.
func (c *Config) HasService(name string) bool {
	for _, s := range c.Services {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func (c *Config) validateServices() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("services must list at least one service")
	}
	seen := make(map[string]string, len(c.Services))
	for _, name := range c.Services {
		typ, ok := serviceTypes[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("no service found with the name %q", name)
		}
		if prev, dup := seen[typ]; dup {
			return fmt.Errorf("more than one service of type %q configured (%s, %s)", typ, prev, name)
		}
		seen[typ] = name
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
