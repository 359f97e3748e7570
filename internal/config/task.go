package config

// TaskConfig is one entry of the `task` array. `type` is mandatory;
// `command`/`args`/`dir` are specific to the "command" type, the one
// concrete task body the core ships with.
type TaskConfig struct {
	Type string `yaml:"type" mapstructure:"type"`
	Name string `yaml:"name" mapstructure:"name"`

	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args" mapstructure:"args"`
	Dir     string   `yaml:"dir" mapstructure:"dir"`
}
