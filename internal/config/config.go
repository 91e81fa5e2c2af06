package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// AppName names the config and state directories
const AppName = "lazyscores"

// Config holds all application configuration
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Database    DatabaseConfig    `mapstructure:"database"`
	UI          UIConfig          `mapstructure:"ui"`
	Data        DataConfig        `mapstructure:"data"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
	Performance PerformanceConfig `mapstructure:"performance"`
}

type GeneralConfig struct {
	DefaultPageSize int   `mapstructure:"default_page_size"`
	PageSizes       []int `mapstructure:"page_sizes"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	Timezone     string `mapstructure:"timezone"`
	TimeLayout   string `mapstructure:"time_layout"`
	LinkBaseURL  string `mapstructure:"link_base_url"`
}

type DataConfig struct {
	MaxCellDisplayLength int `mapstructure:"max_cell_display_length"`
}

type StorageConfig struct {
	StateDir string `mapstructure:"state_dir"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type PerformanceConfig struct {
	// QueryTimeout is in milliseconds
	QueryTimeout int `mapstructure:"query_timeout"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			DefaultPageSize: models.DefaultPageSize,
			PageSizes:       []int{10, 25, 50, 100, 250},
		},
		Database: DatabaseConfig{
			MaxConns: 5,
		},
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
			Timezone:     "Local",
			TimeLayout:   "2006-01-02 15:04:05",
		},
		Data: DataConfig{
			MaxCellDisplayLength: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
		Performance: PerformanceConfig{
			QueryTimeout: 30000,
		},
	}
}

// New returns a viper instance with every default set and the config search
// path configured. Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if dir, err := GetConfigPath(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	d := GetDefaults()
	v.SetDefault("general.default_page_size", d.General.DefaultPageSize)
	v.SetDefault("general.page_sizes", d.General.PageSizes)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.timezone", d.UI.Timezone)
	v.SetDefault("ui.time_layout", d.UI.TimeLayout)
	v.SetDefault("ui.link_base_url", d.UI.LinkBaseURL)
	v.SetDefault("data.max_cell_display_length", d.Data.MaxCellDisplayLength)
	v.SetDefault("storage.state_dir", d.Storage.StateDir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("performance.query_timeout", d.Performance.QueryTimeout)

	v.SetEnvPrefix("LAZYSCORES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file (configFile if set, else the search path) and
// unmarshals it over the defaults. A missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	if c.General.DefaultPageSize <= 0 || c.General.DefaultPageSize > models.MaxPageSize {
		return fmt.Errorf("general.default_page_size must be between 1 and %d", models.MaxPageSize)
	}
	for _, size := range c.General.PageSizes {
		if size <= 0 || size > models.MaxPageSize {
			return fmt.Errorf("general.page_sizes: %d is out of range", size)
		}
	}
	if _, err := time.LoadLocation(c.UI.Timezone); err != nil {
		return fmt.Errorf("ui.timezone: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Location returns the configured display timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// QueryTimeout returns the per-query timeout, zero for none
func (c *Config) QueryTimeout() time.Duration {
	if c.Performance.QueryTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Performance.QueryTimeout) * time.Millisecond
}

// PageSizes returns the page size cycle, always containing the default
func (c *Config) PageSizes() []int {
	sizes := append([]int(nil), c.General.PageSizes...)
	for _, s := range sizes {
		if s == c.General.DefaultPageSize {
			return sizes
		}
	}
	sizes = append(sizes, c.General.DefaultPageSize)
	for i := len(sizes) - 1; i > 0 && sizes[i] < sizes[i-1]; i-- {
		sizes[i], sizes[i-1] = sizes[i-1], sizes[i]
	}
	return sizes
}

// StateDir returns the directory for bookmarks and preferences
func (c *Config) StateDir() (string, error) {
	if c.Storage.StateDir != "" {
		return c.Storage.StateDir, nil
	}
	return GetConfigPath()
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
