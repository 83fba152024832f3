package emu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"xenium/hw/xenium"
)

type Config struct {
	Xenium XeniumConfig `toml:"xenium"`
	Flash  FlashConfig  `toml:"flash"`
	Emu    EmuConfig    `toml:"emu"`
}

type XeniumConfig struct {
	BasePort uint16 `toml:"base_port"`
	Recovery bool   `toml:"recovery"` // recovery jumper engaged
}

type FlashConfig struct {
	Image    string `toml:"image"`    // empty for a blank in-memory flash
	Writable bool   `toml:"writable"` // write flash programming back to the image
}

type EmuConfig struct {
	OnFault FaultPolicy `toml:"on_fault"`
}

// FaultPolicy decides what the machine does when the guest violates a device
// register contract.
type FaultPolicy string

const (
	FaultHalt FaultPolicy = "halt" // stop the machine, report the error
	FaultLog  FaultPolicy = "log"  // log the error and carry on
)

var DefaultConfig = Config{
	Xenium: XeniumConfig{
		BasePort: xenium.DefaultBasePort,
	},
	Emu: EmuConfig{
		OnFault: FaultHalt,
	},
}

func (cfg *Config) Validate() error {
	if int(cfg.Xenium.BasePort)+xenium.NumPorts-1 > 0xFFFF {
		return fmt.Errorf("xenium.base_port %#x: registers don't fit in the I/O space", cfg.Xenium.BasePort)
	}
	switch cfg.Emu.OnFault {
	case FaultHalt, FaultLog:
	default:
		return fmt.Errorf("emu.on_fault %q: must be %q or %q", cfg.Emu.OnFault, FaultHalt, FaultLog)
	}
	return nil
}

const DefaultFileMode = os.FileMode(0755)

// ConfigDir returns the xenium directory in the user configuration directory.
var ConfigDir = sync.OnceValues(func() (string, error) {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(cfgdir, "xenium"), nil
})

const cfgFilename = "config.toml"

// LoadConfig loads the configuration at path. Settings missing from the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown setting %q", path, undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration at path or, if path is empty,
// from the xenium config directory. The default configuration is returned
// when there's no configuration file.
func LoadConfigOrDefault(path string) (Config, error) {
	if path == "" {
		dir, err := ConfigDir()
		if err != nil {
			return DefaultConfig, nil
		}
		path = filepath.Join(dir, cfgFilename)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return DefaultConfig, nil
		}
	}
	return LoadConfig(path)
}

// SaveConfig into the xenium config directory.
func SaveConfig(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		return err
	}
	return WriteConfig(filepath.Join(dir, cfgFilename), cfg)
}

func WriteConfig(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// EncodeConfig writes cfg to w in TOML.
func EncodeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
