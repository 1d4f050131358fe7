package config

import "flag"

// Flags holds command-line overrides bound to a flag set.
type Flags struct {
	Config    string
	Debug     bool
	OutputDir string
	Format    string
	Strict    bool
	Encoding  string
	Workers   int
	NoClobber bool
}

// NewFlags registers the configuration flags on fs.
func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory")
	fs.StringVar(&f.Format, "format", "", "Output format (objjs, glb)")
	fs.BoolVar(&f.Strict, "strict", false, "Fail on malformed numbers and faces")
	fs.StringVar(&f.Encoding, "encoding", "", "Input text encoding (e.g. euc-kr, shift_jis)")
	fs.IntVar(&f.Workers, "workers", 0, "Parallel group builds (0 = one per CPU)")
	fs.BoolVar(&f.NoClobber, "no-clobber", false, "Skip files whose output already exists")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.OutputDir != "" {
		cfg.Convert.OutputDir = f.OutputDir
	}
	if f.Format != "" {
		cfg.Convert.Format = f.Format
	}
	if f.Strict {
		cfg.Convert.Policy = "strict"
	}
	if f.Encoding != "" {
		cfg.Convert.Encoding = f.Encoding
	}
	if f.Workers > 0 {
		cfg.Convert.Workers = f.Workers
	}
	if f.NoClobber {
		cfg.Convert.Overwrite = false
	}
}
