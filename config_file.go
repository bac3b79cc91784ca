//go:build !tinygo

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultConfigFile = "alarmclock.toml"

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "alarmclock")
}

// loadConfig reads path, or the default file in the config dir when path is
// empty. A missing default file yields the defaults. Relative storage paths
// are resolved against the config dir.
func loadConfig(path string) (*Config, error) {
	cfg := newConfig()

	if path == "" {
		def := filepath.Join(configDir(), defaultConfigFile)
		if _, err := os.Stat(def); err == nil {
			path = def
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("parse config: unknown key %q", undec[0].String())
		}
	}

	cfg.Storage.AlarmsFile = resolvePath(cfg.Storage.AlarmsFile)
	cfg.Storage.WifiFile = resolvePath(cfg.Storage.WifiFile)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(configDir(), p)
}
