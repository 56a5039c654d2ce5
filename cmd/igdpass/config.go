package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/virtfault/igdpass/internal/igd"
)

// fileConfig is the igdpass.yaml schema.
type fileConfig struct {
	// GMSOverride replaces the stolen memory field, in 32 MiB units.
	GMSOverride uint32 `yaml:"gms_override"`
	// ROMFile is a ROM image path used when the device exposes no ROM.
	ROMFile string `yaml:"rom_file"`
	// SysfsPath overrides the sysfs device tree root.
	SysfsPath string `yaml:"sysfs_path"`
}

// loadConfig reads an igdpass.yaml file. A missing path yields defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// options maps the file schema onto the setup options.
func (c *fileConfig) options() igd.Options {
	return igd.Options{
		GMSOverride: c.GMSOverride,
		ROMFile:     c.ROMFile,
	}
}
