package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/herald/internal/backend"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HERALD_TEST_DIR", "/srv/voices")
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/abs/model.onnx", "/abs/model.onnx"},
		{"~/model.onnx", filepath.Join(home, "model.onnx")},
		{"$HERALD_TEST_DIR/model.onnx", "/srv/voices/model.onnx"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureConfigFile(t *testing.T) {
	old := configFile
	t.Cleanup(func() { configFile = old })

	configFile = filepath.Join(t.TempDir(), "nested", "herald.yml")
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}

	b, err := os.ReadFile(configFile)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	for _, key := range []string{"backend:", "greeting:", "piper:", "cache:", "watch:", "serve:"} {
		if !strings.Contains(string(b), key) {
			t.Errorf("Default config missing %q", key)
		}
	}

	// An existing file is left alone.
	if err := os.WriteFile(configFile, []byte("backend: log\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed on existing file: %v", err)
	}
	b, _ = os.ReadFile(configFile)
	if string(b) != "backend: log\n" {
		t.Errorf("Existing config overwritten: %q", b)
	}
}

func TestEnsureConfigFileRejectsExtension(t *testing.T) {
	old := configFile
	t.Cleanup(func() { configFile = old })

	configFile = filepath.Join(t.TempDir(), "herald.toml")
	if err := ensureConfigFile(); err == nil {
		t.Error("Expected error for .toml config")
	}
}

func TestValidateBackendName(t *testing.T) {
	for _, name := range []string{"auto", "piper", "spd", "espeak", "log", "espeak-ng", "speech-dispatcher", "", " Log "} {
		if err := validateBackendName(name); err != nil {
			t.Errorf("validateBackendName(%q) failed: %v", name, err)
		}
	}

	err := validateBackendName("espek")
	if err == nil {
		t.Fatal("Expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), `did you mean "espeak"`) {
		t.Errorf("Expected suggestion, got %q", err)
	}
}

// setViper sets key for the duration of the test.
func setViper(t *testing.T, key string, value any) {
	t.Helper()
	old := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, old) })
}

func TestBackendConfig(t *testing.T) {
	setViper(t, "backend", "piper")
	setViper(t, "timeout", "30s")
	setViper(t, "piper.binary", "/opt/piper/piper")
	setViper(t, "piper.model", "/voices/en.onnx")
	setViper(t, "cache.enabled", true)
	setViper(t, "cache.dir", "/tmp/herald-audio")
	setViper(t, "cache.max_size", 8)

	cfg := backendConfig(nil)
	if cfg.Name != "piper" {
		t.Errorf("Name = %q, want piper", cfg.Name)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.Piper.Binary != "/opt/piper/piper" || cfg.Piper.Model != "/voices/en.onnx" {
		t.Errorf("Unexpected piper config: %+v", cfg.Piper)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/herald-audio" {
		t.Errorf("Unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Cache.MaxSize != 8*1024*1024 {
		t.Errorf("MaxSize = %d, want %d", cfg.Cache.MaxSize, 8*1024*1024)
	}
}

func TestValidateOptions(t *testing.T) {
	model := filepath.Join(t.TempDir(), "voice.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		set     map[string]any
		wantErr string
	}{
		{name: "defaults", set: map[string]any{}},
		{name: "existing model", set: map[string]any{"piper.model": model}},
		{name: "unknown backend", set: map[string]any{"backend": "pipr"}, wantErr: "invalid backend"},
		{name: "zero watch rate", set: map[string]any{"watch.rate": 0.0}, wantErr: "watch.rate"},
		{name: "negative watch rate", set: map[string]any{"watch.rate": -1.0}, wantErr: "watch.rate"},
		{name: "cache too small", set: map[string]any{"cache.max_size": 0}, wantErr: "cache.max_size"},
		{name: "cache too large", set: map[string]any{"cache.max_size": 20000}, wantErr: "cache.max_size"},
		{name: "missing model", set: map[string]any{"piper.model": filepath.Join(t.TempDir(), "nope.onnx")}, wantErr: "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setViper(t, "backend", "auto")
			setViper(t, "watch.rate", 0.5)
			setViper(t, "cache.max_size", 64)
			setViper(t, "piper.model", "")
			for k, v := range tt.set {
				setViper(t, k, v)
			}

			err := validateOptions(rootCmd)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Unexpected error: %v", err)
			case tt.wantErr != "" && err == nil:
				t.Errorf("Expected error containing %q", tt.wantErr)
			case tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr):
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err)
			}
		})
	}
}

func TestWatchConfig(t *testing.T) {
	setViper(t, "watch.patterns", []string{"*.go", "*.md"})
	setViper(t, "watch.rate", 2.0)
	setViper(t, "watch.all", true)

	cfg := watchConfig([]string{"cmd", "internal"})
	if len(cfg.Dirs) != 2 || cfg.Dirs[0] != "cmd" {
		t.Errorf("Dirs = %v", cfg.Dirs)
	}
	if len(cfg.Patterns) != 2 || cfg.Patterns[1] != "*.md" {
		t.Errorf("Patterns = %v", cfg.Patterns)
	}
	if cfg.Rate != 2 || !cfg.All {
		t.Errorf("Rate = %v, All = %v", cfg.Rate, cfg.All)
	}

	if cfg := watchConfig(nil); len(cfg.Dirs) != 1 || cfg.Dirs[0] != "." {
		t.Errorf("Expected working directory by default, got %v", cfg.Dirs)
	}
}

func TestBackendsReport(t *testing.T) {
	cfg := backend.DefaultConfig()
	cfg.Cache = backend.CacheConfig{Enabled: true, Dir: filepath.Join(t.TempDir(), "missing"), MaxSize: 1 << 20}

	statuses := []backend.Status{
		{Name: backend.NamePiper, Binary: "piper", Detail: "not installed"},
		{Name: backend.NameSpd, Binary: "spd-say", Path: "/usr/bin/spd-say", Available: true},
		{Name: backend.NameLog, Available: true, Detail: "writes utterances to the log"},
	}

	report := backendsReport(cfg, statuses)
	for _, want := range []string{
		"| piper | piper | no | not installed |",
		"| spd | /usr/bin/spd-say | yes |",
		"| log | - | yes |",
		"Limit: 1.0 MiB",
		"Stored: nothing yet",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q:\n%s", want, report)
		}
	}
}
