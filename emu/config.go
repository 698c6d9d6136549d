package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/apu"
)

type Config struct {
	Audio     AudioConfig     `toml:"audio"`
	Emulation EmulationConfig `toml:"emulation"`
	Input     InputConfig     `toml:"input"`
}

type AudioConfig struct {
	SampleRate   int  `toml:"sample_rate"`
	DisableAudio bool `toml:"disable_audio"`
}

type EmulationConfig struct {
	// Number of frames to run when not specified on the command line.
	Frames int `toml:"frames"`

	// Modules for which debug logging is enabled (see log.ModuleNames).
	DebugModules []string `toml:"debug_modules"`
}

type InputConfig struct {
	Plugged [2]bool `toml:"plugged"`

	// Buttons held down on each controller from power-up.
	Hold [2]hw.Buttons `toml:"hold"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate: apu.DefaultSampleRate,
		},
		Emulation: EmulationConfig{
			Frames: 60,
		},
		Input: InputConfig{
			Plugged: [2]bool{true, false},
		},
	}
}

// ConfigDir returns the nescore directory in the user configuration
// directory, creating it if needed.
var ConfigDir = sync.OnceValues(func() (string, error) {
	dir := configdir.LocalConfig("nescore")
	if err := configdir.MakePath(dir); err != nil {
		return "", err
	}
	return dir, nil
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration at path. Missing settings keep their
// default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config
// directory, or provides the default one.
func LoadConfigOrDefault() Config {
	dir, err := ConfigDir()
	if err != nil {
		log.ModEmu.Warnf("config directory: %v", err)
		return DefaultConfig()
	}

	cfg, err := LoadConfig(filepath.Join(dir, cfgFilename))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.Warnf("failed to load config, using default: %v", err)
		}
		return DefaultConfig()
	}
	return cfg
}

// SaveConfig into nescore config directory.
func SaveConfig(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return SaveConfigTo(filepath.Join(dir, cfgFilename), cfg)
}

// SaveConfigTo writes cfg, as toml, to path.
func SaveConfigTo(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
