package build

import "os"

// Environment holds the behavior switches read at compile time rather
// than from configuration: production builds drop development guards
// and hot-reload instrumentation, server builds drop style reporting
// and hot reload, and test builds drop hot reload only.
type Environment struct {
	Production bool
	Server     bool
	Test       bool
}

// EnvironmentFromOS resolves the environment from process environment
// variables, matching the conventions of the bundler pipelines that
// invoke the compiler.
func EnvironmentFromOS() Environment {
	return Environment{
		Production: os.Getenv("NODE_ENV") == "production",
		Server:     os.Getenv("VUEIFY_SERVER") != "",
		Test:       os.Getenv("VUEIFY_TEST") != "",
	}
}

// HotReload reports whether compiled output should carry hot-reload
// instrumentation.
func (e Environment) HotReload() bool {
	return !e.Production && !e.Test && !e.Server
}
