package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvConfigFile, EnvDSN, EnvDatabase, EnvDataFile, EnvPort, EnvAddr,
		EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile,
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Storage.DatabaseURL != "" {
		t.Fatalf("database_url should default empty, got %q", cfg.Storage.DatabaseURL)
	}
	if cfg.Storage.DataFile != "clipshelf.json" {
		t.Fatalf("data_file = %q, want clipshelf.json", cfg.Storage.DataFile)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clipshelf.yaml")
	doc := []byte("server:\n  addr: \":9090\"\nstorage:\n  database_url: \"postgres://u:p@localhost/db\"\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg := Load()
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Storage.DatabaseURL != "postgres://u:p@localhost/db" {
		t.Fatalf("database_url = %q", cfg.Storage.DatabaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "clipshelf.yaml")
	doc := []byte("storage:\n  database_url: \"from-file.db\"\n")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvDatabase, "postgres://env/db")
	t.Setenv(EnvPort, "7000")
	t.Setenv(EnvDataFile, "other.json")

	cfg := Load()
	if cfg.Storage.DatabaseURL != "postgres://env/db" {
		t.Fatalf("DATABASE_URL override lost: %q", cfg.Storage.DatabaseURL)
	}
	if cfg.Server.Addr != ":7000" {
		t.Fatalf("PORT override lost: %q", cfg.Server.Addr)
	}
	if cfg.Storage.DataFile != "other.json" {
		t.Fatalf("data file override lost: %q", cfg.Storage.DataFile)
	}
}

func TestFileOmittingLogSourceLeavesItAlone(t *testing.T) {
	enabled := true
	dst := Defaults()
	dst.Logging.Source = &enabled

	var src AppConfig
	if err := yaml.Unmarshal([]byte("logging:\n  level: debug\n"), &src); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	mergeInto(&dst, &src)
	if !dst.Logging.SourceEnabled() {
		t.Fatal("merge with unset source clobbered an enabled value")
	}

	disabled := false
	src.Logging.Source = &disabled
	mergeInto(&dst, &src)
	if dst.Logging.SourceEnabled() {
		t.Fatal("explicit source: false not applied")
	}
}

func TestLogSourceEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv(EnvLogSource, "true")

	cfg := Load()
	if !cfg.Logging.SourceEnabled() {
		t.Fatal("CLIPSHELF_LOG_SOURCE=true not applied")
	}
}

func TestDSNWinsOverDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv(EnvDatabase, "postgres://one/db")
	t.Setenv(EnvDSN, "postgres://two/db")

	cfg := Load()
	if cfg.Storage.DatabaseURL != "postgres://two/db" {
		t.Fatalf("CLIPSHELF_DSN should win, got %q", cfg.Storage.DatabaseURL)
	}
}
