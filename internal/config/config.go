// Package config loads the optional TOML configuration. Every key has a
// default mirroring the conventional layout: pipes and record file in the
// working directory, no logging dir, history disabled.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/fifoctl/internal/cleaner"
	"github.com/loykin/fifoctl/internal/messenger"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

// LogConfig controls the operation log and child stderr capture files.
type LogConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// HistoryConfig points at the sqlite operation history. Empty path
// disables history.
type HistoryConfig struct {
	Path string `toml:"path" mapstructure:"path"`
}

// Config is the top-level TOML structure.
type Config struct {
	WorkDir        string        `toml:"work_dir" mapstructure:"work_dir"`
	InputPipe      string        `toml:"input_pipe" mapstructure:"input_pipe"`
	OutputPipe     string        `toml:"output_pipe" mapstructure:"output_pipe"`
	RecordFile     string        `toml:"record_file" mapstructure:"record_file"`
	DefaultCommand string        `toml:"default_command" mapstructure:"default_command"`
	ExpectIdentity string        `toml:"expect_identity" mapstructure:"expect_identity"`
	WriteTimeout   time.Duration `toml:"write_timeout" mapstructure:"write_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout" mapstructure:"read_timeout"`
	GracePeriod    time.Duration `toml:"grace_period" mapstructure:"grace_period"`
	Log            LogConfig     `toml:"log" mapstructure:"log"`
	History        HistoryConfig `toml:"history" mapstructure:"history"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		WorkDir:      ".",
		InputPipe:    pipe.DefaultInput,
		OutputPipe:   pipe.DefaultOutput,
		RecordFile:   registry.DefaultFileName,
		WriteTimeout: messenger.DefaultWriteTimeout,
		ReadTimeout:  messenger.DefaultReadTimeout,
		GracePeriod:  cleaner.DefaultGracePeriod,
	}
}

// Load reads a TOML config file, filling unset keys from Default. An
// empty path yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.InputPipe == "" {
		cfg.InputPipe = pipe.DefaultInput
	}
	if cfg.OutputPipe == "" {
		cfg.OutputPipe = pipe.DefaultOutput
	}
	if cfg.RecordFile == "" {
		cfg.RecordFile = registry.DefaultFileName
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = messenger.DefaultWriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = messenger.DefaultReadTimeout
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = cleaner.DefaultGracePeriod
	}
	return cfg, nil
}

// Pipes resolves the pipe pair against the working directory.
func (c Config) Pipes() pipe.Pair {
	return pipe.Pair{
		Input:  c.resolve(c.InputPipe),
		Output: c.resolve(c.OutputPipe),
	}
}

// Registry resolves the record file against the working directory.
func (c Config) Registry() registry.File {
	return registry.File{Path: c.resolve(c.RecordFile)}
}

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.WorkDir == "" {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
