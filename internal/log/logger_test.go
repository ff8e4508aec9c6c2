package log

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG", "info": "INFO", "warn": "WARN",
		"warning": "WARN", "error": "ERROR", "": "INFO", "bogus": "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestInitAndLog(t *testing.T) {
	Init(Options{Level: "debug", Format: "json"})
	l := WithComponent("test")
	if l == nil {
		t.Fatal("WithComponent returned nil")
	}
	l.Debug("smoke")
}

func TestInitWithFileCreatesLog(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clipshelf.log")
	Init(Options{Level: "info", Format: "console", File: file})
	L().Info("hello", "k", "v")
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CLIPSHELF_LOG_LEVEL", "")
	t.Setenv("CLIPSHELF_LOG_FORMAT", "")
	t.Setenv("CLIPSHELF_LOG_SOURCE", "")
	t.Setenv("CLIPSHELF_LOG_FILE", "")
	opts := FromEnv()
	if opts.Level != "info" || opts.Format != "console" || opts.AddSource || opts.File != "" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}
