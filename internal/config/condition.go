package config

// ConditionConfig is one entry of the `condition` array. `type` selects
// which fields below apply: "bucket" (none), "interval" (interval_ticks),
// "calendar" (schedule), "idle" (idle_threshold), "command" (command/args).
type ConditionConfig struct {
	Type string            `yaml:"type" mapstructure:"type"`
	Name string            `yaml:"name" mapstructure:"name"`
	Tags map[string]string `yaml:"tags" mapstructure:"tags"`

	TaskNames      []string `yaml:"task_names" mapstructure:"task_names"`
	Recurring      bool     `yaml:"recurring" mapstructure:"recurring"`
	MaxRetries     int      `yaml:"max_retries" mapstructure:"max_retries"`
	ExecSequence   bool     `yaml:"exec_sequence" mapstructure:"exec_sequence"`
	BreakOnSuccess bool     `yaml:"break_on_success" mapstructure:"break_on_success"`
	BreakOnFailure bool     `yaml:"break_on_failure" mapstructure:"break_on_failure"`
	Suspended      bool     `yaml:"suspended" mapstructure:"suspended"`

	// IntervalTicks is the "every N ticks" period for the interval type,
	// translated by the applier into a wall-clock duration using the
	// configured scheduler tick period.
	IntervalTicks int `yaml:"interval_ticks" mapstructure:"interval_ticks"`

	// Schedule is a cron expression, for the calendar type.
	Schedule string `yaml:"schedule" mapstructure:"schedule"`

	// IdleThreshold is a time.ParseDuration string, for the idle type.
	IdleThreshold string `yaml:"idle_threshold" mapstructure:"idle_threshold"`

	// Command/Args are the probe for the command type.
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args" mapstructure:"args"`
}
