// Package config loads the scheduler's layered configuration tree using
// viper: YAML file plus environment-variable overrides.
//
// Grounded on the teacher's internal/config/config.go Load/setDefaults
// pattern.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// GlobalConfig is the top-level configuration tree (spec.md §6.1), rooted
// at the `scheduled:` key in YAML.
type GlobalConfig struct {
	SchedulerTickSeconds       int  `yaml:"scheduler_tick_seconds" mapstructure:"scheduler_tick_seconds"`
	RandomizeChecksWithinTicks bool `yaml:"randomize_checks_within_ticks" mapstructure:"randomize_checks_within_ticks"`
	ShutdownGraceSeconds       int  `yaml:"shutdown_grace_seconds" mapstructure:"shutdown_grace_seconds"`

	Control ControlConfig `yaml:"control" mapstructure:"control"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`

	Task      []TaskConfig      `yaml:"task" mapstructure:"task"`
	Condition []ConditionConfig `yaml:"condition" mapstructure:"condition"`
	Event     []EventConfig     `yaml:"event" mapstructure:"event"`
}

// ControlConfig configures the UDS control-plane endpoint.
type ControlConfig struct {
	Socket  string `yaml:"socket" mapstructure:"socket"`
	PIDFile string `yaml:"pid_file" mapstructure:"pid_file"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen"`
	Path    string `yaml:"path" mapstructure:"path"`
}

type configRoot struct {
	Scheduled GlobalConfig `mapstructure:"scheduled"`
}

// Load reads the configuration file at path, applies environment-variable
// overrides (key "scheduled.log.level" -> env "SCHEDULED_LOG_LEVEL"), and
// validates the result.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.UnmarshalExact(&root); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg := root.Scheduled

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scheduled.scheduler_tick_seconds", 5)
	v.SetDefault("scheduled.randomize_checks_within_ticks", false)
	v.SetDefault("scheduled.shutdown_grace_seconds", 10)

	v.SetDefault("scheduled.control.socket", "/var/run/scheduled.sock")
	v.SetDefault("scheduled.control.pid_file", "/var/run/scheduled.pid")

	v.SetDefault("scheduled.metrics.enabled", true)
	v.SetDefault("scheduled.metrics.listen", ":9090")
	v.SetDefault("scheduled.metrics.path", "/metrics")

	v.SetDefault("scheduled.log.level", "info")
	v.SetDefault("scheduled.log.format", "json")
	v.SetDefault("scheduled.log.outputs.console.enabled", true)
}

// validate checks the invariants spec.md §6.1 requires at the root level;
// per-item validation happens where each item is constructed by the
// applier, since that is where type-specific required fields are known.
func (cfg *GlobalConfig) validate() error {
	if cfg.SchedulerTickSeconds < 1 {
		return fmt.Errorf("scheduler_tick_seconds must be >= 1, got %d", cfg.SchedulerTickSeconds)
	}

	seen := make(map[string]struct{}, len(cfg.Task))
	for _, t := range cfg.Task {
		if t.Name == "" {
			return fmt.Errorf("task entry missing name")
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate task name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	seen = make(map[string]struct{}, len(cfg.Condition))
	for _, c := range cfg.Condition {
		if c.Name == "" {
			return fmt.Errorf("condition entry missing name")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate condition name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	seen = make(map[string]struct{}, len(cfg.Event))
	for _, e := range cfg.Event {
		if e.Name == "" {
			return fmt.Errorf("event entry missing name")
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("duplicate event name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	return nil
}
