// Package cmd provides the command-line interface for the component
// compiler with configuration management supporting multiple sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration with clear precedence:
//	1. Command-line flags (--config, --sourcemap, etc.) - highest priority
//	2. VUEIFY_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (VUEIFY_BUILD_SOURCE_MAP, etc.)
//	4. Configuration files (.vueify.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jettary/vueify-through2/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vueify",
	Short: "Compile single-file components into executable modules",
	Long: `vueify compiles single-file component documents (one template, one
script, and any number of style blocks) into standalone executable
modules for inclusion in an application bundle.

Key Features:
  • Concurrent part compilation through pluggable language compilers
  • Scoped CSS with deterministic per-file scope identifiers
  • Line-accurate source maps across part boundaries
  • Hot-reload instrumentation with state-preserving re-render
  • Watch mode with a WebSocket dev channel

Quick Start:
  vueify init                     Write a default .vueify.yml
  vueify compile app.vue          Compile one component to stdout
  vueify watch                    Recompile on change and serve updates`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .vueify.yml, can also use VUEIFY_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// bindBuildFlags declares the shared build flags on a command's flag
// set and binds them into viper under the build section.
func bindBuildFlags(flags *pflag.FlagSet) {
	flags.Bool("sourcemap", false, "generate and embed source maps")
	flags.Bool("extract-css", false, "report styles to the host instead of inlining them")
	flags.Bool("strict-src", false, "fail when an external src file is missing")
	viper.BindPFlag("build.source_map", flags.Lookup("sourcemap"))
	viper.BindPFlag("build.extract_css", flags.Lookup("extract-css"))
	viper.BindPFlag("build.strict_src", flags.Lookup("strict-src"))
}

// initConfig initializes the configuration system.
//
// Loading priority (highest to lowest):
//  1. --config flag: explicitly specified config file path
//  2. VUEIFY_CONFIG_FILE environment variable
//  3. Default: .vueify.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("VUEIFY_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vueify")
	}

	// Automatic env binding: VUEIFY_BUILD_SOURCE_MAP, VUEIFY_SERVER_PORT, ...
	viper.SetEnvPrefix("VUEIFY")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the CLI logger from the bound log-level value.
func newLogger() logging.Logger {
	level := logging.LevelInfo
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.NewLogger(&logging.LoggerConfig{Level: level, Output: os.Stderr})
}
