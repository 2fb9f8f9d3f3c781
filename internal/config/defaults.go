package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const defaultFileHeader = `# .vueify.yml - component compiler configuration
#
# build.source_map   embed a source map in compiled modules
# build.extract_css  report styles to the host instead of inlining them
# build.strict_src   fail the compile when an external src file is missing
# compilers          external preprocessor commands keyed by language tag,
#                    e.g. scss: {command: sass, args: ["--stdin"]}
`

// DefaultYAML renders the default configuration as a commented YAML
// document, written by the init command.
func DefaultYAML() ([]byte, error) {
	body, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshaling default config: %w", err)
	}
	return append([]byte(defaultFileHeader), body...), nil
}
