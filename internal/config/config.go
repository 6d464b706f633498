/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Config represents application configuration.
//
// Values are resolved in order: Default, then the YAML file (if any), then
// HOSTSCOPE_* environment variables. Command-line flags are applied last by
// the commands package.
type Config struct {
	DBPath           string        `yaml:"db_path" env:"HOSTSCOPE_DB_PATH"`
	SamplingInterval time.Duration `yaml:"interval" env:"HOSTSCOPE_INTERVAL"`
	CPUWindow        time.Duration `yaml:"cpu_window" env:"HOSTSCOPE_CPU_WINDOW"`
	IOWindow         time.Duration `yaml:"io_window" env:"HOSTSCOPE_IO_WINDOW"`
	SampleTimeout    time.Duration `yaml:"sample_timeout" env:"HOSTSCOPE_SAMPLE_TIMEOUT"`
	DiskPath         string        `yaml:"disk_path" env:"HOSTSCOPE_DISK_PATH"`

	// Filters
	IncludeDisks    []string `yaml:"include_disks" env:"HOSTSCOPE_INCLUDE_DISKS" envSeparator:","`
	ExcludeDisks    []string `yaml:"exclude_disks" env:"HOSTSCOPE_EXCLUDE_DISKS" envSeparator:","`
	IncludeNetworks []string `yaml:"include_networks" env:"HOSTSCOPE_INCLUDE_NETWORKS" envSeparator:","`
	ExcludeNetworks []string `yaml:"exclude_networks" env:"HOSTSCOPE_EXCLUDE_NETWORKS" envSeparator:","`

	TopProcesses  int `yaml:"top_processes" env:"HOSTSCOPE_TOP_PROCESSES"`
	RetentionRows int `yaml:"retention_rows" env:"HOSTSCOPE_RETENTION_ROWS"` // 0 keeps everything

	// API server
	Listen     string `yaml:"listen" env:"HOSTSCOPE_LISTEN"`
	QueryLimit int    `yaml:"query_limit" env:"HOSTSCOPE_QUERY_LIMIT"`

	// Logging
	LogLevel string `yaml:"log_level" env:"HOSTSCOPE_LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"HOSTSCOPE_LOG_FILE"`

	// Timezone used when rendering exported timestamps (e.g., "Asia/Ho_Chi_Minh", "Local")
	Timezone string `yaml:"timezone" env:"HOSTSCOPE_TIMEZONE"`
}

// Default configuration values.
const (
	DefaultSamplingInterval = 5 * time.Second
	DefaultCPUWindow        = 1 * time.Second
	DefaultIOWindow         = 1 * time.Second
	DefaultSampleTimeout    = 5 * time.Second
	DefaultDiskPath         = "/"
	DefaultTopProcesses     = 5
	DefaultListen           = ":8080"
	DefaultQueryLimit       = 100
	DefaultLogLevel         = "info"
	DefaultDBName           = "hostscope.db"

	maxTopProcesses = 50
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		DBPath:           DefaultDBPath(),
		SamplingInterval: DefaultSamplingInterval,
		CPUWindow:        DefaultCPUWindow,
		IOWindow:         DefaultIOWindow,
		SampleTimeout:    DefaultSampleTimeout,
		DiskPath:         DefaultDiskPath,
		TopProcesses:     DefaultTopProcesses,
		Listen:           DefaultListen,
		QueryLimit:       DefaultQueryLimit,
		LogLevel:         DefaultLogLevel,
	}
}

// DefaultDBPath places the database next to the executable.
func DefaultDBPath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory
		return DefaultDBName
	}
	return filepath.Join(filepath.Dir(exePath), DefaultDBName)
}

// Load builds a configuration from defaults, an optional YAML file and the
// environment. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// ParseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func ParseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SamplingInterval < 1*time.Second {
		return errors.New("sampling interval must be at least 1 second")
	}

	if c.SamplingInterval > 1*time.Hour {
		return errors.New("sampling interval must not exceed 1 hour")
	}

	if c.CPUWindow <= 0 || c.IOWindow <= 0 {
		return errors.New("cpu and io windows must be positive")
	}

	// Both windows run back to back inside one cycle.
	if c.CPUWindow+c.IOWindow >= c.SamplingInterval {
		return fmt.Errorf("cpu window (%v) plus io window (%v) must be shorter than the interval (%v)",
			c.CPUWindow, c.IOWindow, c.SamplingInterval)
	}

	if c.SampleTimeout <= c.CPUWindow || c.SampleTimeout <= c.IOWindow {
		return fmt.Errorf("sample timeout (%v) must exceed both measurement windows", c.SampleTimeout)
	}

	if c.DiskPath == "" {
		return errors.New("disk path cannot be empty")
	}

	if c.TopProcesses < 1 || c.TopProcesses > maxTopProcesses {
		return fmt.Errorf("top processes must be between 1 and %d", maxTopProcesses)
	}

	if c.RetentionRows < 0 {
		return errors.New("retention rows cannot be negative")
	}

	if c.QueryLimit < 0 {
		return errors.New("query limit cannot be negative")
	}

	if err := ValidateLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %s (%w)", c.Timezone, err)
		}
	}

	if c.DBPath == "" {
		return errors.New("database path cannot be empty")
	}

	if err := ensureParentDir(c.DBPath); err != nil {
		return fmt.Errorf("database directory check failed: %w", err)
	}

	return nil
}

// ValidateLogLevel reports whether level is one of debug, info, warn, error.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
}

// Location returns the configured timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ensureParentDir checks that the directory holding path exists.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("parent is not a directory: %s", dir)
	}

	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB=%s, Interval=%v, CPUWindow=%v, IOWindow=%v, Timeout=%v, Disk=%s, Top=%d, Retention=%d, Timezone=%s}",
		c.DBPath, c.SamplingInterval, c.CPUWindow, c.IOWindow, c.SampleTimeout,
		c.DiskPath, c.TopProcesses, c.RetentionRows, c.Timezone)
}
