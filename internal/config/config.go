// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version of the application, reported by /health and dreamctl
const Version = "0.4.0"

// Storage drivers
const (
	StorageCSV    = "csv"
	StorageSQLite = "sqlite"
)

var (
	ErrInvalidPort          = errors.New("invalid port")
	ErrInvalidStorageDriver = errors.New("invalid storage driver")
	ErrInvalidTextBounds    = errors.New("invalid text length bounds")
)

var (
	currentConfig *Config
	configMutex   sync.RWMutex
	configFile    string
)

// Config holds every setting of the application. Secrets are never
// written to the persisted snapshot.
type Config struct {
	Port         string `json:"port"`
	DataDir      string `json:"data_dir"`
	StaticDir    string `json:"static_dir"`
	TemplatesDir string `json:"templates_dir"`
	LogDir       string `json:"log_dir"`
	LogLevel     string `json:"log_level"`
	DebugMode    bool   `json:"debug_mode"`

	StorageDriver string `json:"storage_driver"`
	CSVPath       string `json:"csv_path"`
	SQLitePath    string `json:"sqlite_path"`

	AdminPassword string `json:"-"`
	AuthSecretKey string `json:"-"`

	MinTextLength      int    `json:"min_text_length"`
	MaxTextLength      int    `json:"max_text_length"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
	ExportSchedule     string `json:"export_schedule"`
	LexiconPath        string `json:"lexicon_path,omitempty"`
}

// Load reads .env (optional), the file named by DREAMBANK_CONFIG (optional)
// and the environment, in increasing precedence
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	applyDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("DREAMBANK_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		DataDir:            v.GetString("data_dir"),
		StaticDir:          v.GetString("static_dir"),
		TemplatesDir:       v.GetString("templates_dir"),
		LogDir:             v.GetString("log_dir"),
		LogLevel:           v.GetString("log_level"),
		DebugMode:          v.GetBool("debug_mode"),
		StorageDriver:      v.GetString("storage_driver"),
		CSVPath:            v.GetString("akashia_csv_path"),
		SQLitePath:         v.GetString("sqlite_path"),
		AdminPassword:      v.GetString("admin_password"),
		AuthSecretKey:      v.GetString("auth_secret_key"),
		MinTextLength:      v.GetInt("min_text_length"),
		MaxTextLength:      v.GetInt("max_text_length"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		ExportSchedule:     v.GetString("export_schedule"),
		LexiconPath:        v.GetString("lexicon_path"),
	}
	if cfg.CSVPath == "" {
		cfg.CSVPath = filepath.Join(cfg.DataDir, "submissions.csv")
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "dreams.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("data_dir", "data")
	v.SetDefault("static_dir", "web/static")
	v.SetDefault("templates_dir", "web/templates")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug_mode", true)
	v.SetDefault("storage_driver", StorageCSV)
	v.SetDefault("akashia_csv_path", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("auth_secret_key", "")
	v.SetDefault("min_text_length", 10)
	v.SetDefault("max_text_length", 5000)
	v.SetDefault("rate_limit_per_minute", 30)
	v.SetDefault("export_schedule", "")
	v.SetDefault("lexicon_path", "")
}

// Validate checks the settings that would make the server misbehave
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}
	if c.StorageDriver != StorageCSV && c.StorageDriver != StorageSQLite {
		return fmt.Errorf("%w: %q", ErrInvalidStorageDriver, c.StorageDriver)
	}
	if c.MinTextLength < 1 || c.MaxTextLength < c.MinTextLength {
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidTextBounds, c.MinTextLength, c.MaxTextLength)
	}
	return nil
}

// AdminEnabled reports whether admin endpoints can be unlocked at all
func (c *Config) AdminEnabled() bool {
	return c.AdminPassword != ""
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// InitConfig loads the configuration and keeps it as the process-wide
// snapshot, persisting the non-secret part to dataDir/config.json
func InitConfig(dataDir string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	configFile = filepath.Join(dataDir, "config.json")
	currentConfig = cfg
	if err := saveConfigLocked(); err != nil {
		return nil, err
	}
	copied := *cfg
	return &copied, nil
}

// GetCurrentConfig returns a copy of the snapshot, loading it if needed
func GetCurrentConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		cfg, err := Load()
		if err != nil {
			return nil
		}
		return cfg
	}

	configCopy := *currentConfig
	return &configCopy
}

// SaveConfig writes the current snapshot to disk
func SaveConfig() error {
	configMutex.Lock()
	defer configMutex.Unlock()
	return saveConfigLocked()
}

func saveConfigLocked() error {
	if currentConfig == nil {
		return fmt.Errorf("no configuration to save")
	}
	if err := ensureDir(filepath.Dir(configFile)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(configFile, data, 0644)
}
