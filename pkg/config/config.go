// Package config provides configuration management for the classgraph service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/classgraph/internal/scanspec"
)

// Config holds all configuration for the application.
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Log       LogConfig       `mapstructure:"log"`
}

// RPCConfig holds the query server's configuration.
type RPCConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	CacheSize int    `mapstructure:"cache_size"` // max completed jobs kept queryable
}

// SourceConfig configures one job source instance (database, kafka, http).
// Mirrors internal/scheduler/source.SourceConfig; kept separate so the
// config package never imports the scheduler.
type SourceConfig struct {
	Type    string                 `mapstructure:"type"`
	Name    string                 `mapstructure:"name"`
	Enabled bool                   `mapstructure:"enabled"`
	Options map[string]interface{} `mapstructure:"options"`
}

// ScanConfig holds the scan-spec-related configuration: everything that
// translates into a scanspec.ScanSpec for a job.
type ScanConfig struct {
	DataDir                string   `mapstructure:"data_dir"`
	MaxWorker              int      `mapstructure:"max_worker"`
	WhitelistPackages      []string `mapstructure:"whitelist_packages"`
	BlacklistPackages      []string `mapstructure:"blacklist_packages"`
	WhitelistJars          []string `mapstructure:"whitelist_jars"`
	BlacklistJars          []string `mapstructure:"blacklist_jars"`
	IndexFields            bool     `mapstructure:"index_fields"`
	IndexMethods           bool     `mapstructure:"index_methods"`
	IndexMethodAnnotations bool     `mapstructure:"index_method_annotations"`
	IndexFieldAnnotations  bool     `mapstructure:"index_field_annotations"`
	IgnoreFieldVisibility  bool     `mapstructure:"ignore_field_visibility"`
	IgnoreMethodVisibility bool     `mapstructure:"ignore_method_visibility"`
	EnableAnnotationInfo   bool     `mapstructure:"enable_annotation_info"`
	EnableClassInfo        bool     `mapstructure:"enable_class_info"`
	EnableExternalClasses  bool     `mapstructure:"enable_external_classes"`
	StrictWhitelist        bool     `mapstructure:"strict_whitelist"`
	DisableRecursiveScan   bool     `mapstructure:"disable_recursive_scan"`
	BlacklistSystemJars    bool     `mapstructure:"blacklist_system_jars"`
}

// ToScanSpec builds the scanspec.ScanSpec this configuration describes.
func (c ScanConfig) ToScanSpec() *scanspec.ScanSpec {
	return scanspec.New(
		scanspec.WithWhitelistPackages(c.WhitelistPackages...),
		scanspec.WithBlacklistPackages(c.BlacklistPackages...),
		scanspec.WithWhitelistJars(c.WhitelistJars...),
		scanspec.WithBlacklistJars(c.BlacklistJars...),
		scanspec.WithIndexing(c.IndexFields, c.IndexMethods, c.IndexFieldAnnotations, c.IndexMethodAnnotations),
		scanspec.WithVisibility(c.IgnoreFieldVisibility, c.IgnoreMethodVisibility),
		scanspec.WithClassInfo(c.EnableAnnotationInfo, c.EnableClassInfo),
		scanspec.WithExternalClasses(c.EnableExternalClasses),
		scanspec.WithStrictWhitelist(c.StrictWhitelist),
		scanspec.WithRecursiveScanning(!c.DisableRecursiveScan),
		scanspec.WithBlacklistSystemJars(c.BlacklistSystemJars),
	)
}

// DatabaseConfig holds database connection configuration for the job repository.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration for diagnostics bundles.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// SchedulerConfig holds the scan job scheduler's configuration.
type SchedulerConfig struct {
	PollInterval  int `mapstructure:"poll_interval"` // in seconds
	WorkerCount   int `mapstructure:"worker_count"`
	PrioritySlots int `mapstructure:"priority_slots"`
	TaskBatchSize int `mapstructure:"task_batch_size"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/classgraph")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scan.data_dir", "./data")
	v.SetDefault("scan.max_worker", 6)
	v.SetDefault("scan.enable_class_info", true)

	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("scheduler.poll_interval", 2)
	v.SetDefault("scheduler.worker_count", 6)
	v.SetDefault("scheduler.priority_slots", 2)
	v.SetDefault("scheduler.task_batch_size", 10)

	v.SetDefault("rpc.enabled", true)
	v.SetDefault("rpc.addr", ":9090")
	v.SetDefault("rpc.cache_size", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Type != "postgres" && c.Database.Type != "mysql" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Scheduler.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Scan.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Scan.DataDir, 0755)
}

// GetJobDir returns the job-specific directory path (diagnostics bundles,
// extracted nested archives, temp workspace).
func (c *Config) GetJobDir(jobUUID string) string {
	return filepath.Join(c.Scan.DataDir, jobUUID)
}
