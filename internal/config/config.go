// Package config loads halcyon's configuration from YAML with sane
// defaults, and wires the application logger.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Captions CaptionsConfig `mapstructure:"captions"`
	Player   PlayerConfig   `mapstructure:"player"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig points at the media server.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	UserID  string        `mapstructure:"user_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlaybackConfig tunes the session engine.
type PlaybackConfig struct {
	MaxBitrate           int64         `mapstructure:"max_bitrate"`
	ForceDirectPlay      bool          `mapstructure:"force_direct_play"`
	ResumeThreshold      time.Duration `mapstructure:"resume_threshold"`
	NearEndEpsilon       time.Duration `mapstructure:"near_end_epsilon"`
	AutoResumeDelay      time.Duration `mapstructure:"auto_resume_delay"`
	UpNextCountdown      time.Duration `mapstructure:"up_next_countdown"`
	UpNextTrailingWindow time.Duration `mapstructure:"up_next_trailing_window"`
	ProgressInterval     time.Duration `mapstructure:"progress_interval"`
}

// CaptionsConfig selects the caption track.
type CaptionsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Language string `mapstructure:"language"`
}

// PlayerConfig configures the mpv pipeline.
type PlayerConfig struct {
	Binary         string   `mapstructure:"binary"`
	LoadUserConfig bool     `mapstructure:"load_user_config"`
	ExtraArgs      []string `mapstructure:"extra_args"`
}

// DatabaseConfig configures the local history database.
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SetDefaults registers every default on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "")
	v.SetDefault("server.token", "")
	v.SetDefault("server.user_id", "")
	v.SetDefault("server.timeout", "30s")

	v.SetDefault("playback.max_bitrate", 0)
	v.SetDefault("playback.force_direct_play", false)
	v.SetDefault("playback.resume_threshold", "30s")
	v.SetDefault("playback.near_end_epsilon", "10s")
	v.SetDefault("playback.auto_resume_delay", "10s")
	v.SetDefault("playback.up_next_countdown", "10s")
	v.SetDefault("playback.up_next_trailing_window", "30s")
	v.SetDefault("playback.progress_interval", "5s")

	v.SetDefault("captions.enabled", true)
	v.SetDefault("captions.language", "")

	v.SetDefault("player.binary", "mpv")
	v.SetDefault("player.load_user_config", false)
	v.SetDefault("player.extra_args", []string{})

	v.SetDefault("database.path", filepath.Join(GetDataDir(), "halcyon.db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", filepath.Join(getStateDir(), "halcyon", "halcyon.log"))
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)
}

// Load reads configuration from cfgFile, or the default location when
// empty. A missing config file is not an error: defaults apply.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
	}

	v.SetEnvPrefix("HALCYON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, v, nil
}

// InitializeDirs ensures the config, data and state directories exist.
func InitializeDirs() error {
	dirs := []string{
		GetConfigDir(),
		GetDataDir(),
		filepath.Join(getStateDir(), "halcyon"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// SaveDefaultConfig writes a config file populated with the defaults.
func SaveDefaultConfig(path string) error {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	return v.WriteConfigAs(path)
}

// GetConfigDir returns the halcyon config directory, honoring
// XDG_CONFIG_HOME.
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "halcyon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "halcyon")
	}
	return filepath.Join(home, ".config", "halcyon")
}

// GetDataDir returns the halcyon data directory, honoring XDG_DATA_HOME.
func GetDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "halcyon")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "halcyon")
	}
	return filepath.Join(home, ".local", "share", "halcyon")
}

// getStateDir returns the base state directory, honoring XDG_STATE_HOME.
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}
