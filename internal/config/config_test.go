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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "Empty string", input: "", expected: nil},
		{name: "Single value", input: "sda", expected: []string{"sda"}},
		{name: "Multiple values", input: "sda,sdb", expected: []string{"sda", "sdb"}},
		{name: "Whitespace handling", input: " sda , sdb ", expected: []string{"sda", "sdb"}},
		{name: "Empty parts", input: "sda,,sdb", expected: []string{"sda", "sdb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommaSeparated(tt.input))
		})
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	cfg := *Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(c *Config) {}},
		{name: "Interval too small", mutate: func(c *Config) { c.SamplingInterval = 500 * time.Millisecond }, wantErr: true},
		{name: "Interval too large", mutate: func(c *Config) { c.SamplingInterval = 2 * time.Hour }, wantErr: true},
		{name: "Zero cpu window", mutate: func(c *Config) { c.CPUWindow = 0 }, wantErr: true},
		{
			name: "Windows exceed interval",
			mutate: func(c *Config) {
				c.SamplingInterval = 2 * time.Second
				c.CPUWindow = time.Second
				c.IOWindow = time.Second
			},
			wantErr: true,
		},
		{name: "Timeout shorter than window", mutate: func(c *Config) { c.SampleTimeout = 500 * time.Millisecond }, wantErr: true},
		{name: "Empty disk path", mutate: func(c *Config) { c.DiskPath = "" }, wantErr: true},
		{name: "Zero top processes", mutate: func(c *Config) { c.TopProcesses = 0 }, wantErr: true},
		{name: "Negative retention", mutate: func(c *Config) { c.RetentionRows = -1 }, wantErr: true},
		{name: "Negative query limit", mutate: func(c *Config) { c.QueryLimit = -5 }, wantErr: true},
		{name: "Invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "Valid timezone", mutate: func(c *Config) { c.Timezone = "UTC" }},
		{name: "Invalid timezone", mutate: func(c *Config) { c.Timezone = "Invalid/Timezone" }, wantErr: true},
		{name: "Empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{
			name: "Missing db directory",
			mutate: func(c *Config) {
				c.DBPath = filepath.Join(os.TempDir(), "hostscope-nonexistent-dir", "x", "test.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultSamplingInterval, cfg.SamplingInterval)
	assert.Equal(t, DefaultCPUWindow, cfg.CPUWindow)
	assert.Equal(t, DefaultIOWindow, cfg.IOWindow)
	assert.Equal(t, DefaultTopProcesses, cfg.TopProcesses)
	assert.Equal(t, DefaultDiskPath, cfg.DiskPath)
	assert.Equal(t, 0, cfg.RetentionRows)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostscope.yaml")
	content := `
db_path: /var/lib/hostscope/metrics.db
interval: 10s
cpu_window: 2s
top_processes: 3
include_disks: [sda, nvme0n1]
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("HOSTSCOPE_TOP_PROCESSES", "7")
	t.Setenv("HOSTSCOPE_EXCLUDE_NETWORKS", "docker0,veth1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/hostscope/metrics.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.SamplingInterval)
	assert.Equal(t, 2*time.Second, cfg.CPUWindow)
	assert.Equal(t, DefaultIOWindow, cfg.IOWindow)
	assert.Equal(t, []string{"sda", "nvme0n1"}, cfg.IncludeDisks)
	assert.Equal(t, []string{"docker0", "veth1"}, cfg.ExcludeNetworks)
	assert.Equal(t, "debug", cfg.LogLevel)
	// environment wins over the file
	assert.Equal(t, 7, cfg.TopProcesses)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("interval: [not a duration"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("HOSTSCOPE_TOP_PROCESSES", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestConfig_Location(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Timezone = "Local"
	assert.Equal(t, time.Local, cfg.Location())
}
