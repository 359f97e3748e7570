package config

// EventConfig is one entry of the `event` array. `type` selects which
// fields below apply: "manual" (none), "fschange" (path), "bus" (brokers/
// topic/group_id), "query" (command/args/interval_seconds). `condition`
// names the bucket-backed condition this event fires.
type EventConfig struct {
	Type      string            `yaml:"type" mapstructure:"type"`
	Name      string            `yaml:"name" mapstructure:"name"`
	Condition string            `yaml:"condition" mapstructure:"condition"`
	Tags      map[string]string `yaml:"tags" mapstructure:"tags"`

	// Path is the watched filesystem path, for the fschange type.
	Path string `yaml:"path" mapstructure:"path"`

	// Brokers/Topic/GroupID configure the Kafka consumer, for the bus type.
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
	GroupID string   `yaml:"group_id" mapstructure:"group_id"`

	// Command/Args/IntervalSeconds configure the poll loop, for the query
	// type.
	Command         string   `yaml:"command" mapstructure:"command"`
	Args            []string `yaml:"args" mapstructure:"args"`
	IntervalSeconds int      `yaml:"interval_seconds" mapstructure:"interval_seconds"`
}
