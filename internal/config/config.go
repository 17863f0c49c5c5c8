package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	constants "taskly/config"
	"taskly/pkg/utils"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents the application configuration. It is loaded once at
// start and treated as read-only afterwards.
type Config struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	HistorySize  int           `mapstructure:"history_size" yaml:"history_size"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	DiskPath     string        `mapstructure:"disk_path" yaml:"disk_path"`

	TopProcesses int    `mapstructure:"top_processes" yaml:"top_processes"`
	SortBy       string `mapstructure:"sort_by" yaml:"sort_by"`
	NormalizeCPU bool   `mapstructure:"normalize_cpu" yaml:"normalize_cpu"`

	CPUThreshold  float64       `mapstructure:"cpu_threshold" yaml:"cpu_threshold"`
	RAMThreshold  float64       `mapstructure:"ram_threshold" yaml:"ram_threshold"`
	TempThreshold float64       `mapstructure:"temp_threshold" yaml:"temp_threshold"`
	CPUCritical   float64       `mapstructure:"cpu_critical" yaml:"cpu_critical"`
	RAMCritical   float64       `mapstructure:"ram_critical" yaml:"ram_critical"`
	TempCritical  float64       `mapstructure:"temp_critical" yaml:"temp_critical"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown" yaml:"alert_cooldown"`
	AlertCapacity int           `mapstructure:"alert_capacity" yaml:"alert_capacity"`

	ExportDir       string `mapstructure:"export_dir" yaml:"export_dir"`
	PreferencesFile string `mapstructure:"preferences_file" yaml:"preferences_file"`
	DefaultLanguage string `mapstructure:"default_language" yaml:"default_language"`

	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	HTTPListen   string `mapstructure:"http_listen" yaml:"http_listen"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPToken    string `mapstructure:"otlp_token" yaml:"otlp_token,omitempty"`

	AlertDB        string        `mapstructure:"alert_db" yaml:"alert_db"`
	AlertRetention time.Duration `mapstructure:"alert_retention" yaml:"alert_retention"`
}

// Loader wraps a private viper instance so commands can bind their flags
// before the configuration is read.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment binding applied
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll_interval", constants.DEFAULT_POLL_INTERVAL)
	v.SetDefault("history_size", constants.DEFAULT_HISTORY_SIZE)
	v.SetDefault("cache_ttl", constants.DEFAULT_CACHE_TTL)
	v.SetDefault("disk_path", constants.DEFAULT_DISK_PATH)

	v.SetDefault("top_processes", constants.DEFAULT_TOP_PROCESSES)
	v.SetDefault("sort_by", constants.DEFAULT_SORT_BY)
	v.SetDefault("normalize_cpu", constants.DEFAULT_NORMALIZE_CPU)

	v.SetDefault("cpu_threshold", constants.DEFAULT_CPU_THRESHOLD)
	v.SetDefault("ram_threshold", constants.DEFAULT_MEMORY_THRESHOLD)
	v.SetDefault("temp_threshold", constants.DEFAULT_TEMP_THRESHOLD)
	v.SetDefault("cpu_critical", constants.DEFAULT_CPU_CRITICAL)
	v.SetDefault("ram_critical", constants.DEFAULT_MEMORY_CRITICAL)
	v.SetDefault("temp_critical", constants.DEFAULT_TEMP_CRITICAL)
	v.SetDefault("alert_cooldown", constants.DEFAULT_ALERT_COOLDOWN)
	v.SetDefault("alert_capacity", constants.DEFAULT_ALERT_CAPACITY)

	v.SetDefault("export_dir", constants.DEFAULT_EXPORT_DIR)
	v.SetDefault("preferences_file", constants.DEFAULT_PREFERENCES_FILE)
	v.SetDefault("default_language", constants.DEFAULT_LANGUAGE)

	v.SetDefault("log_file", constants.LOG_FILE)
	v.SetDefault("log_level", constants.DEFAULT_LOG_LEVEL)

	v.SetDefault("http_listen", constants.DEFAULT_HTTP_LISTEN)
	v.SetDefault("otlp_endpoint", constants.DEFAULT_OTLP_ENDPOINT)
	v.SetDefault("otlp_token", "")

	v.SetDefault("alert_db", constants.DEFAULT_ALERT_DB)
	v.SetDefault("alert_retention", constants.DEFAULT_ALERT_RETENTION)
}

// BindFlag binds a command-line flag to a config key
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %s not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file (explicit path or ~/.taskly/config.yaml) and
// returns the validated configuration. A missing default file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath("$HOME" + constants.CONFIG_DIR_NAME)
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.PreferencesFile = utils.ExpandHome(cfg.PreferencesFile)
	cfg.ExportDir = utils.ExpandHome(cfg.ExportDir)
	cfg.LogFile = utils.ExpandHome(cfg.LogFile)
	cfg.AlertDB = utils.ExpandHome(cfg.AlertDB)
	cfg.SortBy = strings.ToLower(cfg.SortBy)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Default returns the built-in configuration without reading files or env
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config does not decode: %v", err))
	}
	cfg.PreferencesFile = utils.ExpandHome(cfg.PreferencesFile)
	return &cfg
}

// Validate checks value ranges
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", cfg.PollInterval))
	}
	if cfg.HistorySize <= 0 {
		errs = append(errs, fmt.Errorf("history_size must be positive, got %d", cfg.HistorySize))
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must not be negative, got %s", cfg.CacheTTL))
	}
	if cfg.AlertCooldown < 0 {
		errs = append(errs, fmt.Errorf("alert_cooldown must not be negative, got %s", cfg.AlertCooldown))
	}
	if cfg.AlertRetention < 0 {
		errs = append(errs, fmt.Errorf("alert_retention must not be negative, got %s", cfg.AlertRetention))
	}
	if cfg.AlertCapacity <= 0 {
		errs = append(errs, fmt.Errorf("alert_capacity must be positive, got %d", cfg.AlertCapacity))
	}
	if cfg.SortBy != "cpu" && cfg.SortBy != "memory" {
		errs = append(errs, fmt.Errorf("sort_by must be cpu or memory, got %q", cfg.SortBy))
	}

	percents := map[string]float64{
		"cpu_threshold": cfg.CPUThreshold,
		"ram_threshold": cfg.RAMThreshold,
		"cpu_critical":  cfg.CPUCritical,
		"ram_critical":  cfg.RAMCritical,
	}
	for key, value := range percents {
		if !utils.IsValidPercentage(value) {
			errs = append(errs, fmt.Errorf("%s must be within 0-100, got %.1f", key, value))
		}
	}
	if cfg.TempThreshold <= 0 || cfg.TempCritical <= 0 {
		errs = append(errs, fmt.Errorf("temperature thresholds must be positive"))
	}

	return errors.Join(errs...)
}

// EnsureDir creates the parent directory of a file path
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
