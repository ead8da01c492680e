// Package config reads tachyon.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"tachyon/internal/engine"
	"tachyon/internal/trace"
)

// FileName is the name looked up in the working directory when no path is
// given.
const FileName = "tachyon.toml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Compile struct {
	Lazy             *bool `toml:"lazy"`
	MaxProgramPoints int   `toml:"max_program_points"`
	Jobs             int   `toml:"jobs"`
}

type Linker struct {
	ChainBound int `toml:"chain_bound"`
}

type Speculation struct {
	PersistDir string `toml:"persist_dir"`
}

type Trace struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

type Log struct {
	Level string `toml:"level"`
}

// File mirrors tachyon.toml. Zero values mean "use the engine default".
type File struct {
	Compile     Compile     `toml:"compile"`
	Linker      Linker      `toml:"linker"`
	Speculation Speculation `toml:"speculation"`
	Trace       Trace       `toml:"trace"`
	Log         Log         `toml:"log"`

	path string
}

// Path is where the file was read from, or "" for defaults.
func (f *File) Path() string { return f.path }

// Load parses path. An empty path loads ./tachyon.toml when it exists and
// defaults otherwise.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	f := &File{}
	meta, err := toml.DecodeFile(path, f)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s: %w", path, strings.Join(keys, ", "), ErrInvalid)
	}
	f.path = path
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) validate() error {
	if f.Compile.MaxProgramPoints < 0 {
		return fmt.Errorf("[compile].max_program_points must not be negative: %w", ErrInvalid)
	}
	if f.Compile.Jobs < 0 {
		return fmt.Errorf("[compile].jobs must not be negative: %w", ErrInvalid)
	}
	if f.Linker.ChainBound < 0 {
		return fmt.Errorf("[linker].chain_bound must not be negative: %w", ErrInvalid)
	}
	if _, err := f.TraceConfig(); err != nil {
		return err
	}
	if _, err := f.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses [log].level; the default is warn.
func (f *File) LogLevel() (zerolog.Level, error) {
	if f.Log.Level == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(f.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("[log].level: %w", err)
	}
	return lvl, nil
}

// Apply overlays the file onto cfg.
func (f *File) Apply(cfg engine.Config) engine.Config {
	if f.Compile.Lazy != nil {
		cfg.Lazy = *f.Compile.Lazy
	}
	if f.Compile.MaxProgramPoints > 0 {
		cfg.PointLimit = f.Compile.MaxProgramPoints
	}
	if f.Compile.Jobs > 0 {
		cfg.Jobs = f.Compile.Jobs
	}
	if f.Linker.ChainBound > 0 {
		cfg.ChainBound = f.Linker.ChainBound
	}
	if f.Speculation.PersistDir != "" {
		cfg.PersistDir = f.Speculation.PersistDir
	}
	return cfg
}

// TraceConfig translates [trace]; an absent section means tracing off.
func (f *File) TraceConfig() (trace.Config, error) {
	var cfg trace.Config
	if f.Trace.Level != "" {
		lvl, err := trace.ParseLevel(f.Trace.Level)
		if err != nil {
			return cfg, fmt.Errorf("[trace].level: %w", err)
		}
		cfg.Level = lvl
	}
	mode, err := trace.ParseMode(f.Trace.Mode)
	if err != nil {
		return cfg, fmt.Errorf("[trace].mode: %w", err)
	}
	cfg.Mode = mode
	if f.Trace.Format != "" {
		format, err := trace.ParseFormat(f.Trace.Format)
		if err != nil {
			return cfg, fmt.Errorf("[trace].format: %w", err)
		}
		cfg.Format = format
	}
	cfg.OutputPath = f.Trace.Output
	return cfg, nil
}
