// Package config loads sao settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"github.com/Ocrabit/sao-guidance/audacity"
)

// Config of all sao components.
type Config struct {
	CacheDir   string
	SampleRate int
	SoundFont  string
	FluidSynth string
	Audacity   Audacity
	LogLevel   string
}

// Audacity client settings.
type Audacity struct {
	Platform audacity.Platform
	Timeout  time.Duration
}

type fileConfig struct {
	Cache struct {
		Dir string `toml:"dir"`
	} `toml:"cache"`
	Render struct {
		SampleRate int    `toml:"sample_rate"`
		SoundFont  string `toml:"soundfont"`
		FluidSynth string `toml:"fluidsynth"`
	} `toml:"render"`
	Audacity struct {
		Platform string `toml:"platform"`
		ToPipe   string `toml:"to_pipe"`
		FromPipe string `toml:"from_pipe"`
		Timeout  string `toml:"timeout"`
	} `toml:"audacity"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns configuration used when no file is provided.
func Default() Config {
	return Config{
		CacheDir:   ".",
		SampleRate: 16000,
		FluidSynth: "fluidsynth",
		Audacity: Audacity{
			Platform: audacity.DefaultPlatform(),
			Timeout:  audacity.DefaultTimeout,
		},
		LogLevel: "info",
	}
}

// Load reads the file at path on top of defaults. Only keys present in
// the file override defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("cache", "dir") {
		if cfg.CacheDir, err = expand(raw.Cache.Dir); err != nil {
			return Config{}, fmt.Errorf("parse cache.dir: %w", err)
		}
	}
	if meta.IsDefined("render", "sample_rate") {
		cfg.SampleRate = raw.Render.SampleRate
	}
	if meta.IsDefined("render", "soundfont") {
		if cfg.SoundFont, err = expand(raw.Render.SoundFont); err != nil {
			return Config{}, fmt.Errorf("parse render.soundfont: %w", err)
		}
	}
	if meta.IsDefined("render", "fluidsynth") {
		cfg.FluidSynth = strings.TrimSpace(raw.Render.FluidSynth)
	}
	if meta.IsDefined("audacity", "platform") {
		p, ok := audacity.PlatformByName(strings.TrimSpace(raw.Audacity.Platform))
		if !ok {
			return Config{}, fmt.Errorf("parse audacity.platform: unknown platform %q", raw.Audacity.Platform)
		}
		cfg.Audacity.Platform = p
	}
	if meta.IsDefined("audacity", "to_pipe") {
		cfg.Audacity.Platform.ToPipe = strings.TrimSpace(raw.Audacity.ToPipe)
	}
	if meta.IsDefined("audacity", "from_pipe") {
		cfg.Audacity.Platform.FromPipe = strings.TrimSpace(raw.Audacity.FromPipe)
	}
	if meta.IsDefined("audacity", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Audacity.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse audacity.timeout: %w", err)
		}
		cfg.Audacity.Timeout = d
	}
	if meta.IsDefined("log", "level") {
		cfg.LogLevel = strings.TrimSpace(raw.Log.Level)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that configuration is usable.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return fmt.Errorf("config missing cache dir")
	}
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.Audacity.Platform.ToPipe == "" || cfg.Audacity.Platform.FromPipe == "" {
		return fmt.Errorf("audacity pipes are not defined")
	}
	if cfg.Audacity.Timeout < 0 {
		return fmt.Errorf("audacity timeout must not be negative")
	}
	return nil
}

func expand(path string) (string, error) {
	p, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	return os.ExpandEnv(p), nil
}
