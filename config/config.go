// Package config loads the small set of knobs a serial MCTP endpoint
// needs: which character device to open, at what baud rate, the seed
// endpoint ID, and whether the optional event slot and PLDM affordance are
// enabled. Structured the way
// Generativebots-ocx-backend-go-svc/internal/config loads its (much
// larger) Config struct — nested, yaml-tagged sub-structs unmarshaled from
// a file, with defaults applied first and environment overrides layered on
// top — scaled down to this endpoint's actual surface.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config is the top-level endpoint configuration document.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Event  EventConfig  `yaml:"event"`
	PLDM   PLDMConfig   `yaml:"pldm"`
	Log    LogConfig    `yaml:"log"`
}

// SerialConfig describes the physical UART this endpoint listens on.
type SerialConfig struct {
	Device     string `yaml:"device"`
	BaudRate   uint32 `yaml:"baud_rate"`
	EndpointID byte   `yaml:"endpoint_id"`
	BTU        int    `yaml:"btu"`
}

// EventConfig controls the optional asynchronous event-transmit slot.
type EventConfig struct {
	Enabled bool `yaml:"enabled"`
	BufSize int  `yaml:"buf_size"`
}

// PLDMConfig controls the PLDM message-type compile-time affordance.
type PLDMConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig controls the structured logger's verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Device:     "/dev/ttyUSB0",
			BaudRate:   115200,
			EndpointID: 0x00,
			BTU:        64,
		},
		Event: EventConfig{
			Enabled: false,
			BufSize: 128,
		},
		PLDM: PLDMConfig{Enabled: false},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads path (YAML) over Default, then applies a handful of
// environment overrides (MCTP_SERIAL_DEVICE, MCTP_SERIAL_BAUD,
// MCTP_SERIAL_ENDPOINT_ID, MCTP_LOG_LEVEL), in that order of precedence.
// A missing file is not an error: Default is returned with env overrides
// applied.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MCTP_SERIAL_DEVICE"); v != "" {
		cfg.Serial.Device = v
	}
	if v := os.Getenv("MCTP_SERIAL_BAUD"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Serial.BaudRate = uint32(n)
		}
	}
	if v := os.Getenv("MCTP_SERIAL_ENDPOINT_ID"); v != "" {
		if n, err := strconv.ParseUint(v, 0, 8); err == nil {
			cfg.Serial.EndpointID = byte(n)
		}
	}
	if v := os.Getenv("MCTP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
