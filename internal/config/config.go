/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads service configuration from an optional YAML file
// with environment variables as read-only overrides at runtime.
//
// The backend selection rule is deliberately minimal: a non-empty
// database connection string selects the relational backend, otherwise
// the flat-file backend is used against DataFile.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env var names used as overrides.
const (
	EnvConfigFile = "CLIPSHELF_CONFIG"
	EnvDSN        = "CLIPSHELF_DSN"
	EnvDatabase   = "DATABASE_URL"
	EnvDataFile   = "CLIPSHELF_DATA_FILE"
	EnvPort       = "PORT"
	EnvAddr       = "ADDR"
	// Logging envs
	EnvLogLevel  = "CLIPSHELF_LOG_LEVEL"
	EnvLogFormat = "CLIPSHELF_LOG_FORMAT"
	EnvLogSource = "CLIPSHELF_LOG_SOURCE"
	EnvLogFile   = "CLIPSHELF_LOG_FILE"
)

// DefaultConfigFile is consulted when CLIPSHELF_CONFIG is unset.
const DefaultConfigFile = "clipshelf.yaml"

type ServerConfig struct {
	Addr string `yaml:"addr"` // http bind address, e.g., ":8080"
}

type StorageConfig struct {
	// DatabaseURL selects the relational backend when non-empty.
	// postgres:// and postgresql:// URLs use the pgx driver; anything
	// else is treated as a SQLite path or DSN.
	DatabaseURL string `yaml:"database_url"`
	// DataFile is the flat-file dataset path used when DatabaseURL is empty.
	DataFile string `yaml:"data_file"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Source is a pointer so a config file that omits the key leaves the
	// current value alone instead of forcing false.
	Source *bool  `yaml:"source"`
	File   string `yaml:"file"`
}

// SourceEnabled reports whether source positions are included in log
// records; an unset value means disabled.
func (l LoggingConfig) SourceEnabled() bool { return l.Source != nil && *l.Source }

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Server        ServerConfig  `yaml:"server"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Server:        ServerConfig{Addr: ":8080"},
		Storage:       StorageConfig{DatabaseURL: "", DataFile: "clipshelf.json"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: nil, File: ""},
	}
}

// ConfigPath returns the config file path, honoring CLIPSHELF_CONFIG.
func ConfigPath() string {
	if v := strings.TrimSpace(os.Getenv(EnvConfigFile)); v != "" {
		return v
	}
	return DefaultConfigFile
}

// Load reads the config file (if present), applies defaults, and merges
// environment overrides. A missing or unparsable file is not an error;
// defaults plus env win.
func Load() AppConfig {
	cfg := Defaults()
	if data, err := os.ReadFile(ConfigPath()); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg
}

func mergeInto(dst, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.Server.Addr) != "" {
		dst.Server.Addr = strings.TrimSpace(src.Server.Addr)
	}
	if strings.TrimSpace(src.Storage.DatabaseURL) != "" {
		dst.Storage.DatabaseURL = strings.TrimSpace(src.Storage.DatabaseURL)
	}
	if strings.TrimSpace(src.Storage.DataFile) != "" {
		dst.Storage.DataFile = strings.TrimSpace(src.Storage.DataFile)
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if src.Logging.Source != nil {
		dst.Logging.Source = src.Logging.Source
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	// CLIPSHELF_DSN wins over DATABASE_URL when both are set.
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataFile)); v != "" {
		cfg.Storage.DataFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		enabled := lv == "1" || lv == "true" || lv == "on" || lv == "yes"
		cfg.Logging.Source = &enabled
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}
