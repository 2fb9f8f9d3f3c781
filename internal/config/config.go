// Package config provides configuration management for the component
// compiler using Viper for flexible configuration loading from files,
// environment variables, and command-line flags.
//
// The configuration system supports YAML files (.vueify.yml),
// environment variable overrides with the VUEIFY_ prefix, and
// validation. It manages build options (source maps, CSS extraction,
// external-source read policy), the custom compiler table merged into
// the registry, watch paths, and the dev server address.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Build     BuildConfig               `yaml:"build" mapstructure:"build"`
	Compilers map[string]CompilerConfig `yaml:"compilers" mapstructure:"compilers"`
	Watch     WatchConfig               `yaml:"watch" mapstructure:"watch"`
	Server    ServerConfig              `yaml:"server" mapstructure:"server"`
	// TargetFiles are CLI arguments, not from the config file
	TargetFiles []string `yaml:"-" mapstructure:"-"`
}

// BuildConfig holds the per-compile options.
type BuildConfig struct {
	// SourceMap enables source-map generation and embedding
	SourceMap bool `yaml:"source_map" mapstructure:"source_map"`
	// ExtractCSS disables inline style injection; styles are only
	// reported through the style notification for the host to collect
	ExtractCSS bool `yaml:"extract_css" mapstructure:"extract_css"`
	// StrictSrc makes a missing externally-referenced part file a
	// compile error instead of logged empty content
	StrictSrc bool `yaml:"strict_src" mapstructure:"strict_src"`
	// OutDir is where the compile command writes modules; empty
	// means stdout
	OutDir string `yaml:"out_dir" mapstructure:"out_dir"`
}

// CompilerConfig declares an external preprocessor command for a
// language tag. The section source is piped to stdin and compiled
// output read from stdout.
type CompilerConfig struct {
	Command string   `yaml:"command" mapstructure:"command"`
	Args    []string `yaml:"args" mapstructure:"args"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Paths      []string `yaml:"paths" mapstructure:"paths"`
	Ignore     []string `yaml:"ignore" mapstructure:"ignore"`
	DebounceMs int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// ServerConfig is the hot-reload dev server address.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// Load builds a Config from viper's current state (config file, env,
// and bound flags), applying defaults for anything unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Workarounds for viper slice/bool handling when values arrive
	// via env or flags rather than the config file
	if viper.IsSet("build.source_map") {
		config.Build.SourceMap = viper.GetBool("build.source_map")
	}
	if viper.IsSet("build.extract_css") {
		config.Build.ExtractCSS = viper.GetBool("build.extract_css")
	}
	if viper.IsSet("build.strict_src") {
		config.Build.StrictSrc = viper.GetBool("build.strict_src")
	}
	if viper.IsSet("watch.paths") && len(config.Watch.Paths) == 0 {
		config.Watch.Paths = viper.GetStringSlice("watch.paths")
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = []string{"."}
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{"node_modules", ".git"}
	}
	if config.Watch.DebounceMs == 0 {
		config.Watch.DebounceMs = 100
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8135
	}
	if config.Compilers == nil {
		config.Compilers = map[string]CompilerConfig{}
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for lang, compiler := range c.Compilers {
		if compiler.Command == "" {
			return fmt.Errorf("compilers.%s: command must not be empty", lang)
		}
	}
	if c.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	return nil
}
