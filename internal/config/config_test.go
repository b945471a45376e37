package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()

	homeDir := filepath.Join(tempDir, "home")
	if err := os.MkdirAll(filepath.Join(homeDir, ".cryptkit"), 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	homeConfig := []byte(`workers: 3
keysize:
  max: 40
  top: 5
audit:
  file: /var/log/cryptkit/audit.jsonl
`)
	if err := os.WriteFile(filepath.Join(homeDir, ".cryptkit", "config.yml"), homeConfig, 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	// The working-directory file overrides the home file.
	workDir := filepath.Join(tempDir, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	localConfig := []byte(`keysize:
  top: 3
  normalization: Integer
tracing:
  file: spans.jsonl
  sample_ratio: 0.5
`)
	if err := os.WriteFile(filepath.Join(workDir, "cryptkit.yml"), localConfig, 0o644); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	// Environment beats both files.
	t.Setenv("CRYPTKIT_WORKERS", "7")
	t.Setenv("CRYPTKIT_AUDIT_STDOUT", "true")

	chdir(t, workDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Workers != 7 {
		t.Fatalf("expected env workers, got %d", cfg.Workers)
	}
	if cfg.Keysize.Max != 40 {
		t.Fatalf("expected home keysize.max, got %d", cfg.Keysize.Max)
	}
	if cfg.Keysize.Top != 3 {
		t.Fatalf("expected local keysize.top, got %d", cfg.Keysize.Top)
	}
	if cfg.Keysize.Min != 2 || cfg.Keysize.Pairs != 4 {
		t.Fatalf("absent keys should keep defaults, got %+v", cfg.Keysize)
	}
	if cfg.Keysize.Normalization != NormalizationInteger || cfg.Keysize.Fractional() {
		t.Fatalf("expected integer normalization, got %q", cfg.Keysize.Normalization)
	}
	if cfg.Audit.File != "/var/log/cryptkit/audit.jsonl" || !cfg.Audit.Stdout {
		t.Fatalf("unexpected audit config %+v", cfg.Audit)
	}
	if cfg.Tracing.File != "spans.jsonl" || cfg.Tracing.SampleRatio != 0.5 {
		t.Fatalf("unexpected tracing config %+v", cfg.Tracing)
	}
	if cfg.Tracing.ServiceName != "cryptkit" {
		t.Fatalf("expected default service name, got %s", cfg.Tracing.ServiceName)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	defaults := Default()
	if cfg != defaults {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
	if !cfg.Keysize.Fractional() {
		t.Fatal("default normalization should be fractional")
	}
	if !strings.HasSuffix(cfg.Recipes.Dir, filepath.Join(".cryptkit", "recipes")) {
		t.Fatalf("unexpected recipes dir %s", cfg.Recipes.Dir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "min below two", file: "keysize:\n  min: 1\n"},
		{name: "max below min", file: "keysize:\n  min: 10\n  max: 4\n"},
		{name: "zero top", file: "keysize:\n  top: 0\n"},
		{name: "zero pairs", env: map[string]string{"CRYPTKIT_KEYSIZE_PAIRS": "0"}},
		{name: "unknown normalization", env: map[string]string{"CRYPTKIT_KEYSIZE_NORMALIZATION": "decimal"}},
		{name: "ratio above one", file: "tracing:\n  sample_ratio: 1.5\n"},
		{name: "non-numeric env", env: map[string]string{"CRYPTKIT_KEYSIZE_MAX": "many"}},
		{name: "bad bool env", env: map[string]string{"CRYPTKIT_AUDIT_STDOUT": "loud"}},
		{name: "malformed yaml", file: "keysize: [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
			work := t.TempDir()
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(work, "cryptkit.yml"), []byte(tt.file), 0o644); err != nil {
					t.Fatalf("write config: %v", err)
				}
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			chdir(t, work)

			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yml")
	if err := os.WriteFile(path, []byte("recipes:\n  dir: /srv/recipes\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Recipes.Dir != "/srv/recipes" {
		t.Fatalf("unexpected recipes dir %s", cfg.Recipes.Dir)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
