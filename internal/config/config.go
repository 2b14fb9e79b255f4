package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the searchbridge configuration.
type Config struct {
	HTTP    HTTPConfig        `yaml:"http"`
	Elastic ElasticConfig     `yaml:"elastic"`
	Records RecordsConfig     `yaml:"records"`
	Ledger  LedgerConfig      `yaml:"ledger"`
	Auth    AuthConfig        `yaml:"auth"`
	Search  SearchConfig      `yaml:"search"`
	Reindex ReindexConfig     `yaml:"reindex"`
	Logging LoggingConfig     `yaml:"logging"`
	TypeMap map[string]string `yaml:"type_map"`
	Classes []ClassConfig     `yaml:"classes"`
	Indexes []IndexConfig     `yaml:"indexes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ElasticConfig holds search engine connection settings.
type ElasticConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	APIKey    string   `yaml:"api_key"`
	CloudID   string   `yaml:"cloud_id"`
	// Pipeline is the ingest pipeline of bulk writes; "none" sends none.
	Pipeline string `yaml:"pipeline"`
}

// Record source drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// RecordsConfig selects and tunes the record source.
type RecordsConfig struct {
	Driver          string `yaml:"driver"` // postgres, memory (default: postgres)
	DatabaseURL     string `yaml:"database_url"`
	FixturePath     string `yaml:"fixture_path"`
	CacheSize       int    `yaml:"cache_size"` // 0 = default, negative disables
	CacheTTL        int    `yaml:"cache_ttl_sec"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
	ConnMaxIdleTime int    `yaml:"conn_max_idle_time_sec"`
}

// LedgerConfig holds dirty ledger settings.
type LedgerConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds query compilation settings.
type SearchConfig struct {
	RowMultiplier   int  `yaml:"row_multiplier"`
	SpellcheckRetry bool `yaml:"spellcheck_retry"`
	DefaultRows     int  `yaml:"default_rows"`
}

// ReindexConfig holds batch reindex settings.
type ReindexConfig struct {
	BatchLength int `yaml:"batch_length"`
	Workers     int `yaml:"workers"`
}

// ClassConfig declares one domain class.
type ClassConfig struct {
	Name    string            `yaml:"name"`
	Parent  string            `yaml:"parent"`
	Fields  map[string]string `yaml:"fields"`
	HasOne  map[string]string `yaml:"has_one"`
	HasMany map[string]string `yaml:"has_many"`
}

// IndexConfig declares one engine index.
type IndexConfig struct {
	Name             string              `yaml:"name"`
	Classes          []string            `yaml:"classes"`
	FulltextFields   []string            `yaml:"fulltext_fields"`
	FilterFields     []string            `yaml:"filter_fields"`
	SortFields       []string            `yaml:"sort_fields"`
	StoredFields     []string            `yaml:"stored_fields"`
	Facets           []FacetConfig       `yaml:"facets"`
	CopyFields       map[string][]string `yaml:"copy_fields"`
	ViewStatusFilter []string            `yaml:"view_status_filter"`
}

// FacetConfig declares one facet of an index.
type FacetConfig struct {
	BaseClass string `yaml:"base_class"`
	Field     string `yaml:"field"`
	Title     string `yaml:"title"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, defaults and validates the configuration at configPath.
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Defaults applied by ApplyDefaults.
const (
	DefaultPipeline    = "ent-search-generic-ingestion"
	DefaultCacheSize   = 1024
	DefaultCacheTTL    = 300
	DefaultKeyPrefix   = "searchbridge:"
	DefaultBatchLength = 500
	DefaultWorkers     = 4
	DefaultRows        = 10
	// NoPipeline disables the ingest pipeline.
	NoPipeline = "none"
)

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Elastic.Pipeline == "" {
		c.Elastic.Pipeline = DefaultPipeline
	}
	if c.Records.Driver == "" {
		c.Records.Driver = DriverPostgres
	}
	if c.Records.CacheSize == 0 {
		c.Records.CacheSize = DefaultCacheSize
	}
	if c.Records.CacheTTL <= 0 {
		c.Records.CacheTTL = DefaultCacheTTL
	}
	if c.Records.MaxOpenConns <= 0 {
		c.Records.MaxOpenConns = 10
	}
	if c.Records.MaxIdleConns <= 0 {
		c.Records.MaxIdleConns = 5
	}
	if c.Records.ConnMaxLifetime <= 0 {
		c.Records.ConnMaxLifetime = 1800
	}
	if c.Records.ConnMaxIdleTime <= 0 {
		c.Records.ConnMaxIdleTime = 300
	}
	if c.Ledger.KeyPrefix == "" {
		c.Ledger.KeyPrefix = DefaultKeyPrefix
	}
	if c.Ledger.ReadinessTimeout <= 0 {
		c.Ledger.ReadinessTimeout = 10
	}
	if c.Search.RowMultiplier <= 0 {
		c.Search.RowMultiplier = 2
	}
	if c.Search.DefaultRows <= 0 {
		c.Search.DefaultRows = DefaultRows
	}
	if c.Reindex.BatchLength <= 0 {
		c.Reindex.BatchLength = DefaultBatchLength
	}
	if c.Reindex.Workers <= 0 {
		c.Reindex.Workers = DefaultWorkers
	}
}

// IngestPipeline returns the pipeline for bulk writes, empty when disabled.
func (c *Config) IngestPipeline() string {
	if c.Elastic.Pipeline == NoPipeline {
		return ""
	}
	return c.Elastic.Pipeline
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Elastic.Addresses) == 0 && c.Elastic.CloudID == "" {
		return fmt.Errorf("elastic.addresses or elastic.cloud_id is required")
	}
	switch c.Records.Driver {
	case DriverPostgres:
		if c.Records.DatabaseURL == "" {
			return fmt.Errorf("records.database_url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("records.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Records.Driver)
	}
	if c.Ledger.Enabled && len(c.Ledger.Addrs) == 0 {
		return fmt.Errorf("ledger.addrs is required when the ledger is enabled")
	}
	if len(c.Classes) == 0 {
		return fmt.Errorf("at least one class is required")
	}
	if len(c.Indexes) == 0 {
		return fmt.Errorf("at least one index is required")
	}
	seen := make(map[string]bool, len(c.Indexes))
	for i, idx := range c.Indexes {
		if idx.Name == "" {
			return fmt.Errorf("indexes[%d].name is required", i)
		}
		if seen[idx.Name] {
			return fmt.Errorf("duplicate index %q", idx.Name)
		}
		seen[idx.Name] = true
		if len(idx.Classes) == 0 {
			return fmt.Errorf("indexes.%s.classes is required", idx.Name)
		}
		for j, f := range idx.Facets {
			if f.BaseClass == "" || f.Field == "" || f.Title == "" {
				return fmt.Errorf("indexes.%s.facets[%d] needs base_class, field and title", idx.Name, j)
			}
		}
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
