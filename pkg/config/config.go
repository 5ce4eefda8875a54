/*
Package config manages TOML config for pickserve services.

Config is loaded with priority: an explicit --config path, then the default
file in the user config directory (created with defaults when missing), then
builtin defaults. A file that fails to decode as a whole is parsed section by
section so one bad value does not discard the rest.
*/
package config

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/charmbracelet/log"
)

// ErrNoConfig is returned when no config file location can be determined.
var ErrNoConfig = errors.New("no config file")

const fileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Catalog CatalogConfig `toml:"catalog"`
	Widget  WidgetConfig  `toml:"widget"`
	CLI     CliConfig     `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
	MinQuery int `toml:"min_query"`
	MaxQuery int `toml:"max_query"`
	Workers  int `toml:"workers"`
}

// CatalogConfig locates the option catalog.
type CatalogConfig struct {
	Path     string `toml:"path"`
	Language string `toml:"language"`
}

// WidgetConfig holds combobox defaults.
type WidgetConfig struct {
	Language      string `toml:"language"`
	MaxResults    int    `toml:"max_results"`
	DebounceMS    int    `toml:"debounce_ms"`
	AllowFreeText bool   `toml:"allow_free_text"`
	Multiple      bool   `toml:"multiple"`
	PageSize      int    `toml:"page_size"`
	ItemHeight    int    `toml:"item_height"`
}

// Debounce returns the debounce delay as a duration.
func (w WidgetConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int    `toml:"default_limit"`
	DefaultLanguage string `toml:"default_language"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit: 100,
			MinQuery: 0,
			MaxQuery: 120,
			Workers:  4,
		},
		Catalog: CatalogConfig{
			Path:     utils.DefaultCatalogFile,
			Language: "en",
		},
		Widget: WidgetConfig{
			Language:      "en",
			MaxResults:    100,
			DebounceMS:    250,
			AllowFreeText: false,
			Multiple:      false,
			PageSize:      10,
			ItemHeight:    1,
		},
		CLI: CliConfig{
			DefaultLimit:    10,
			DefaultLanguage: "en",
		},
	}
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		log.Errorf("Failed to resolve paths: %v", err)
		return "", errors.Join(ErrNoConfig, err)
	}
	return pr.GetConfigPath(fileName)
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/pickserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse recovers whatever sections decode on their own.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "catalog"); ok {
		extractCatalogConfig(section, &config.Catalog)
	}
	if section, ok := utils.ExtractSection(raw, "widget"); ok {
		extractWidgetConfig(section, &config.Widget)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt64(data, "max_limit"); ok {
		server.MaxLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "min_query"); ok {
		server.MinQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "max_query"); ok {
		server.MaxQuery = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		server.Workers = val
	}
}

func extractCatalogConfig(data map[string]any, catalog *CatalogConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		catalog.Path = val
	}
	if val, ok := utils.ExtractString(data, "language"); ok {
		catalog.Language = val
	}
}

func extractWidgetConfig(data map[string]any, widget *WidgetConfig) {
	if val, ok := utils.ExtractString(data, "language"); ok {
		widget.Language = val
	}
	if val, ok := utils.ExtractInt64(data, "max_results"); ok {
		widget.MaxResults = val
	}
	if val, ok := utils.ExtractInt64(data, "debounce_ms"); ok {
		widget.DebounceMS = val
	}
	if val, ok := utils.ExtractBool(data, "allow_free_text"); ok {
		widget.AllowFreeText = val
	}
	if val, ok := utils.ExtractBool(data, "multiple"); ok {
		widget.Multiple = val
	}
	if val, ok := utils.ExtractInt64(data, "page_size"); ok {
		widget.PageSize = val
	}
	if val, ok := utils.ExtractInt64(data, "item_height"); ok {
		widget.ItemHeight = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractString(data, "default_language"); ok {
		cli.DefaultLanguage = val
	}
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() error {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return err
	}
	return SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the server limits and saves to file. Nil arguments keep
// their current value.
func (c *Config) Update(configPath string, maxLimit, minQuery, maxQuery *int) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minQuery != nil {
		server.MinQuery = *minQuery
	}
	if maxQuery != nil {
		server.MaxQuery = *maxQuery
	}
	return SaveConfig(c, configPath)
}
