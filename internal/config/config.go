// Package config loads propguard's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/propguard/propguard/internal/identity"
	"github.com/propguard/propguard/internal/observability/logging"
	otelobs "github.com/propguard/propguard/internal/observability/otel"
	"gopkg.in/yaml.v3"
)

// Config is the full file layout.
type Config struct {
	Device      Device         `yaml:"device"`
	Table       string         `yaml:"table"`
	PackageUIDs map[string]int `yaml:"package_uids"`
	Log         logging.Config `yaml:"log"`
	Otel        otelobs.Config `yaml:"otel"`
	Receipt     Receipt        `yaml:"receipt"`
}

// Device describes the real hardware the process runs on.
type Device struct {
	Codename       string            `yaml:"codename"`
	Incremental    string            `yaml:"incremental"`
	AlternateModel string            `yaml:"alternate_model"`
	InitialSDK     int               `yaml:"initial_sdk"`
	Identity       map[string]string `yaml:"identity"`
}

// Receipt output
type Receipt struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"` // overwrite|append
}

// Default returns a generic, non-Pixel emulator device with otel and
// receipts off.
func Default() Config {
	return Config{
		Device: Device{
			Codename:    "generic_x86_64",
			Incremental: "10940250",
			InitialSDK:  33,
			Identity: map[string]string{
				"BRAND":        "generic",
				"MANUFACTURER": "unknown",
				"DEVICE":       "generic_x86_64",
				"PRODUCT":      "sdk_gphone_x86_64",
				"MODEL":        "sdk_gphone_x86_64",
				"FINGERPRINT":  "generic/sdk_gphone_x86_64/generic_x86_64:13/TE1A.220922.034/10940250:userdebug/dev-keys",
				"TYPE":         "userdebug",
				"TAGS":         "dev-keys",
			},
		},
		PackageUIDs: map[string]int{},
		Log:         logging.DefaultConfig(),
		Otel:        otelobs.DefaultConfig(),
		Receipt:     Receipt{Mode: "overwrite"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate every section
func (c Config) Validate() error {
	var errs []error
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Otel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Device.IdentityDevice(); err != nil {
		errs = append(errs, err)
	}
	switch c.Receipt.Mode {
	case "", "overwrite", "append":
	default:
		errs = append(errs, fmt.Errorf("receipt: mode must be 'overwrite' or 'append', got %q", c.Receipt.Mode))
	}
	return errors.Join(errs...)
}

// IdentityDevice converts the device section for the identity store.
func (d Device) IdentityDevice() (identity.Device, error) {
	attrs := make(map[identity.Key]string, len(d.Identity))
	for raw, value := range d.Identity {
		k, err := identity.ParseKey(raw)
		if err != nil {
			return identity.Device{}, fmt.Errorf("device identity: %w", err)
		}
		attrs[k] = value
	}
	return identity.Device{
		Attributes:  attrs,
		Incremental: d.Incremental,
		InitialSDK:  d.InitialSDK,
	}, nil
}
