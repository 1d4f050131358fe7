package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/objconv/pkg/encoding"
	"github.com/Faultbox/objconv/pkg/formats"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Convert.Format != FormatObjJS {
		t.Errorf("expected format %q, got %q", FormatObjJS, cfg.Convert.Format)
	}
	if cfg.Convert.Policy != "lenient" {
		t.Errorf("expected policy 'lenient', got %q", cfg.Convert.Policy)
	}
	if cfg.Convert.OutputDir != "" {
		t.Errorf("expected empty output dir, got %q", cfg.Convert.OutputDir)
	}
	if cfg.Convert.Encoding != "utf-8" {
		t.Errorf("expected encoding utf-8, got %q", cfg.Convert.Encoding)
	}
	if cfg.Convert.Workers != 0 {
		t.Errorf("expected workers 0, got %d", cfg.Convert.Workers)
	}
	if !cfg.Convert.Overwrite {
		t.Error("expected overwrite to be true by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "objconv.yaml")

	yamlContent := `
convert:
  output_dir: "build/meshes"
  format: glb
  policy: strict
  encoding: euc-kr
  workers: 4
  overwrite: false
  file_timeout: 30s

logging:
  level: "debug"
  log_file: "objconv.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Convert.OutputDir != "build/meshes" {
		t.Errorf("expected output dir build/meshes, got %s", cfg.Convert.OutputDir)
	}
	if cfg.Convert.Format != FormatGLB {
		t.Errorf("expected format glb, got %s", cfg.Convert.Format)
	}
	if cfg.ParsePolicy() != formats.PolicyStrict {
		t.Errorf("expected strict policy, got %v", cfg.ParsePolicy())
	}
	if cfg.Convert.Encoding != "euc-kr" {
		t.Errorf("expected encoding euc-kr, got %s", cfg.Convert.Encoding)
	}
	if cfg.Convert.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Convert.Workers)
	}
	if cfg.Convert.Overwrite {
		t.Error("expected overwrite to be false")
	}
	if cfg.Convert.FileTimeout != 30*time.Second {
		t.Errorf("expected file timeout 30s, got %v", cfg.Convert.FileTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "objconv.log" {
		t.Errorf("expected log file 'objconv.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
convert:
  workers: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/objconv.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"glb", func(c *Config) { c.Convert.Format = FormatGLB }, nil},
		{"unknown format", func(c *Config) { c.Convert.Format = "fbx" }, ErrUnknownFormat},
		{"unknown policy", func(c *Config) { c.Convert.Policy = "relaxed" }, formats.ErrUnknownPolicy},
		{"euc-kr", func(c *Config) { c.Convert.Encoding = "euc-kr" }, nil},
		{"unknown encoding", func(c *Config) { c.Convert.Encoding = "ebcdic-9" }, encoding.ErrUnknownEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	cfg := Default()
	cfg.Convert.Workers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative workers")
	}
}

func TestOutputExt(t *testing.T) {
	cfg := Default()
	if got := cfg.OutputExt(); got != ".objjs" {
		t.Errorf("OutputExt() = %q, want .objjs", got)
	}
	cfg.Convert.Format = FormatGLB
	if got := cfg.OutputExt(); got != ".glb" {
		t.Errorf("OutputExt() = %q, want .glb", got)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("convert:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestFlagsApply(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "strict flag",
			args: []string{"-strict", "-encoding", "shift_jis"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.ParsePolicy() != formats.PolicyStrict {
					t.Errorf("expected strict policy, got %s", cfg.Convert.Policy)
				}
				if cfg.Convert.Encoding != "shift_jis" {
					t.Errorf("expected encoding shift_jis, got %s", cfg.Convert.Encoding)
				}
			},
		},
		{
			name: "format and output",
			args: []string{"-format", "glb", "-out", "dist"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Format != FormatGLB {
					t.Errorf("expected format glb, got %s", cfg.Convert.Format)
				}
				if cfg.Convert.OutputDir != "dist" {
					t.Errorf("expected output dir dist, got %s", cfg.Convert.OutputDir)
				}
			},
		},
		{
			name: "workers and no-clobber",
			args: []string{"-workers", "3", "-no-clobber"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Workers != 3 {
					t.Errorf("expected workers 3, got %d", cfg.Convert.Workers)
				}
				if cfg.Convert.Overwrite {
					t.Error("expected overwrite to be false with -no-clobber")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := NewFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg := Default()
			f.apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "objconv.yaml")

	yamlContent := `
convert:
  format: glb
  workers: 2
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	flags := &Flags{Config: configPath, Workers: 8}
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers from flag, format from file
	if cfg.Convert.Workers != 8 {
		t.Errorf("expected workers 8 from flag, got %d", cfg.Convert.Workers)
	}
	if cfg.Convert.Format != FormatGLB {
		t.Errorf("expected format glb from file, got %s", cfg.Convert.Format)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	flags := &Flags{Config: filepath.Join(t.TempDir(), "none.yaml")}
	if _, err := Load(flags); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := Load(&Flags{Format: "obj"}); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "objconv.yaml")

	cfg := Default()
	cfg.Convert.Format = FormatGLB
	cfg.Convert.Workers = 6
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Convert.Format != FormatGLB || loaded.Convert.Workers != 6 {
		t.Errorf("reloaded config = %+v", loaded.Convert)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	if err := Default().Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ConfigDir(), "config.yaml")); err != nil {
		t.Errorf("saved config not found: %v", err)
	}
}
