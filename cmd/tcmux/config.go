package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mikesmitty/tcmux"
)

// Config describes how the shield is wired to the host. Pin names are
// whatever gpioreg knows them by, e.g. "GPIO17" on a Raspberry Pi.
type Config struct {
	Bus      string   `yaml:"bus"`
	CS       string   `yaml:"cs"`
	A0       string   `yaml:"a0"`
	A1       string   `yaml:"a1"`
	A2       string   `yaml:"a2"`
	EN       string   `yaml:"en"`
	SettleMs int      `yaml:"settle_ms"`
	Channels []int    `yaml:"channels"`
	Samples  int      `yaml:"samples"`
	Retries  *int     `yaml:"retries"`
	Labels   []string `yaml:"labels"` // optional, one per channel
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge overrides cfg with every flag that was set.
func (cfg *Config) Merge(o *Options) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Bus, o.Bus)
	set(&cfg.CS, o.CS)
	set(&cfg.A0, o.A0)
	set(&cfg.A1, o.A1)
	set(&cfg.A2, o.A2)
	set(&cfg.EN, o.EN)
	if len(o.Channels) > 0 {
		cfg.Channels = o.Channels
	}
	if o.Samples > 0 {
		cfg.Samples = o.Samples
	}
	if o.Retries >= 0 {
		r := o.Retries
		cfg.Retries = &r
	}
}

// Normalize fills in defaults.
func (cfg *Config) Normalize() {
	if len(cfg.Channels) == 0 {
		for ch := 1; ch <= tcmux.Channels; ch++ {
			cfg.Channels = append(cfg.Channels, ch)
		}
	}
	if cfg.Samples == 0 {
		cfg.Samples = 3
	}
	if cfg.Retries == nil {
		r := 3
		cfg.Retries = &r
	}
}

// Validate checks the config without changing it.
func (cfg *Config) Validate() error {
	for i, v := range []string{cfg.A0, cfg.A1, cfg.A2, cfg.EN} {
		if v == "" {
			return fmt.Errorf("mux pin %s is required", [...]string{"a0", "a1", "a2", "en"}[i])
		}
	}
	seen := map[int]bool{}
	for _, ch := range cfg.Channels {
		if ch < 1 || ch > tcmux.Channels {
			return fmt.Errorf("channel %d out of range 1..%d", ch, tcmux.Channels)
		}
		if seen[ch] {
			return fmt.Errorf("channel %d listed twice", ch)
		}
		seen[ch] = true
	}
	if cfg.Samples < 1 {
		return fmt.Errorf("samples must be positive, got %d", cfg.Samples)
	}
	if cfg.Retries != nil && *cfg.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", *cfg.Retries)
	}
	if cfg.SettleMs < 0 {
		return fmt.Errorf("settle_ms must not be negative")
	}
	if len(cfg.Labels) != 0 && len(cfg.Labels) != tcmux.Channels {
		return fmt.Errorf("labels: want %d entries, got %d", tcmux.Channels, len(cfg.Labels))
	}
	return nil
}

func (cfg *Config) settle() time.Duration {
	return time.Duration(cfg.SettleMs) * time.Millisecond
}

func (cfg *Config) label(ch int) string {
	if len(cfg.Labels) == tcmux.Channels && cfg.Labels[ch-1] != "" {
		return cfg.Labels[ch-1]
	}
	return fmt.Sprintf("TC%d", ch)
}
