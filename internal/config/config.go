// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/objconv/pkg/encoding"
	"github.com/Faultbox/objconv/pkg/formats"
)

// Output formats.
const (
	FormatObjJS = "objjs"
	FormatGLB   = "glb"
)

// ErrUnknownFormat is returned by Validate for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds conversion settings.
type ConvertConfig struct {
	OutputDir   string        `yaml:"output_dir"`   // Empty = next to the input file
	Format      string        `yaml:"format"`       // objjs or glb
	Policy      string        `yaml:"policy"`       // lenient or strict
	Encoding    string        `yaml:"encoding"`     // Input text encoding, e.g. euc-kr; empty = utf-8
	Workers     int           `yaml:"workers"`      // Parallel group builds, 0 = one per CPU
	Overwrite   bool          `yaml:"overwrite"`    // Replace existing output files
	FileTimeout time.Duration `yaml:"file_timeout"` // 0 = no limit
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			OutputDir:   "",
			Format:      FormatObjJS,
			Policy:      formats.PolicyLenient.String(),
			Encoding:    "utf-8",
			Workers:     0,
			Overwrite:   true,
			FileTimeout: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that enumerated settings hold known values.
func (c *Config) Validate() error {
	switch c.Convert.Format {
	case FormatObjJS, FormatGLB:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Convert.Format)
	}
	if _, err := formats.ParseOBJPolicy(c.Convert.Policy); err != nil {
		return err
	}
	if _, err := encoding.Lookup(c.Convert.Encoding); err != nil {
		return err
	}
	if c.Convert.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Convert.Workers)
	}
	return nil
}

// ParsePolicy returns the configured parse policy.
func (c *Config) ParsePolicy() formats.OBJPolicy {
	p, _ := formats.ParseOBJPolicy(c.Convert.Policy)
	return p
}

// OutputExt returns the file extension for the configured format.
func (c *Config) OutputExt() string {
	if c.Convert.Format == FormatGLB {
		return ".glb"
	}
	return ".objjs"
}
