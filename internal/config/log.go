package config

// LogConfig configures the process-wide slog logger.
type LogConfig struct {
	Level   string           `yaml:"level" mapstructure:"level"`
	Format  string           `yaml:"format" mapstructure:"format"` // "json" or "text"
	Outputs LogOutputsConfig `yaml:"outputs" mapstructure:"outputs"`
}

// LogOutputsConfig enumerates the writers a log record is fanned out to.
type LogOutputsConfig struct {
	Console ConsoleOutputConfig `yaml:"console" mapstructure:"console"`
	File    FileOutputConfig    `yaml:"file" mapstructure:"file"`
	Loki    LokiOutputConfig    `yaml:"loki" mapstructure:"loki"`
}

// ConsoleOutputConfig writes to stdout. Enabled by default when no other
// output is configured.
type ConsoleOutputConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// FileOutputConfig writes to a rotated file via lumberjack.
type FileOutputConfig struct {
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Path     string         `yaml:"path" mapstructure:"path"`
	Rotation RotationConfig `yaml:"rotation" mapstructure:"rotation"`
}

// RotationConfig mirrors lumberjack.Logger's rotation knobs.
type RotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// LokiOutputConfig batches and ships log lines to Grafana Loki.
type LokiOutputConfig struct {
	Enabled       bool              `yaml:"enabled" mapstructure:"enabled"`
	Endpoint      string            `yaml:"endpoint" mapstructure:"endpoint"`
	Labels        map[string]string `yaml:"labels" mapstructure:"labels"`
	BatchSize     int               `yaml:"batch_size" mapstructure:"batch_size"`
	FlushInterval string            `yaml:"flush_interval" mapstructure:"flush_interval"`
}
