package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jettary/vueify-through2/internal/build"
	"github.com/jettary/vueify-through2/internal/config"
	"github.com/jettary/vueify-through2/internal/logging"
	"github.com/jettary/vueify-through2/internal/registry"
)

var compileOutDir string

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:     "compile [files...]",
	Aliases: []string{"c"},
	Short:   "Compile component files into executable modules",
	Long: `Compile one or more single-file components into executable modules.

Each file is compiled independently: its template, script, and style
sections are extracted, run through the configured language compilers
concurrently, and merged into one output module. Output goes to stdout,
or next to each input file when --out is given.

Examples:
  vueify compile app.vue                 # Compile to stdout
  vueify compile --sourcemap app.vue     # Embed a source map
  vueify compile --out dist src/*.vue    # Write dist/<name>.vue.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompileCommand,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	bindBuildFlags(compileCmd.Flags())
	compileCmd.Flags().StringVarP(&compileOutDir, "out", "o", "", "output directory (default stdout)")
}

func runCompileCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg.TargetFiles = args

	logger := newLogger()
	compiler := newCompiler(cfg, logger)

	outDir := compileOutDir
	if outDir == "" {
		outDir = cfg.Build.OutDir
	}

	ctx := cmd.Context()
	for _, file := range cfg.TargetFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		output, err := compiler.Compile(ctx, content, file)
		if err != nil {
			return err
		}

		logger.Debug(ctx, "compiled component",
			"file", file, "scope_id", output.ScopeID, "duration", output.Duration)

		if outDir == "" {
			fmt.Fprint(cmd.OutOrStdout(), output.Code)
			continue
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		outPath := filepath.Join(outDir, filepath.Base(file)+".js")
		if err := os.WriteFile(outPath, []byte(output.Code), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}

		for _, extract := range output.Styles {
			cssPath := strings.TrimSuffix(outPath, ".js") + ".css"
			if cfg.Build.ExtractCSS {
				if err := os.WriteFile(cssPath, []byte(extract.CSS), 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", cssPath, err)
				}
			}
		}
	}

	metrics := compiler.Metrics()
	logger.Info(ctx, "compilation finished",
		"total", metrics.TotalCompiles,
		"failed", metrics.FailedCompiles,
		"avg_duration", metrics.AverageDuration)
	return nil
}

// newCompiler assembles a compiler from the loaded configuration:
// build options from the build section, and the registry populated
// with the configuration-declared preprocessor commands.
func newCompiler(cfg *config.Config, logger logging.Logger) *build.Compiler {
	reg := registryFromConfig(cfg)
	if langs := reg.Languages(); len(langs) > 0 {
		logger.Debug(context.Background(), "custom compilers registered", "languages", langs)
	}

	opts := build.Options{
		SourceMap:  cfg.Build.SourceMap,
		ExtractCSS: cfg.Build.ExtractCSS,
		StrictSrc:  cfg.Build.StrictSrc,
	}
	return build.New(opts, reg, logger)
}

// registryFromConfig builds the compiler registry from the config's
// custom compiler table.
func registryFromConfig(cfg *config.Config) *registry.Registry {
	reg := registry.New()
	transforms := make(map[string]registry.Transform, len(cfg.Compilers))
	for lang, compiler := range cfg.Compilers {
		transforms[lang] = registry.ExecTransform(compiler.Command, compiler.Args...)
	}
	reg.Merge(transforms)
	return reg
}
