package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jettary/vueify-through2/internal/build"
	"github.com/jettary/vueify-through2/internal/config"
	"github.com/jettary/vueify-through2/internal/dev"
	"github.com/jettary/vueify-through2/internal/logging"
	"github.com/jettary/vueify-through2/internal/scope"
	"github.com/jettary/vueify-through2/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Recompile components on change and serve hot updates",
	Long: `Watch the configured paths for component file changes, recompile
changed files, and push the recompiled modules to connected clients
over the WebSocket dev channel.

The dev server exposes:
  /ws          WebSocket update channel
  /modules/    latest compiled module per component
  /healthz     liveness probe

Examples:
  vueify watch                    # Watch paths from .vueify.yml
  vueify watch --sourcemap        # Watch with source maps enabled`,
	RunE: runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	bindBuildFlags(watchCmd.Flags())
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger()
	compiler := newCompiler(cfg, logger)
	server := dev.NewServer(cfg.Server.Host, cfg.Server.Port, logger)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fw, err := watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond, logger)
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.ComponentFilter)
	fw.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			if event.Type == watcher.EventTypeDeleted {
				continue
			}
			recompile(ctx, compiler, server, event.Path, logger)
		}
		return nil
	})

	for _, path := range cfg.Watch.Paths {
		if err := fw.AddRecursive(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}
	fw.Start(ctx)

	logger.Info(ctx, "watching for component changes",
		"paths", cfg.Watch.Paths,
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	return server.Start(ctx)
}

func recompile(ctx context.Context, compiler *build.Compiler, server *dev.Server, file string, logger logging.Logger) {
	content, err := os.ReadFile(file)
	if err != nil {
		logger.Warn(ctx, err, "reading changed file", "file", file)
		return
	}

	output, err := compiler.Compile(ctx, content, file)
	if err != nil {
		logger.Error(ctx, err, "recompile failed", "file", file)
		server.PublishError(ctx, file, err)
		return
	}

	logger.Info(ctx, "recompiled component",
		"component", scope.ComponentName(file),
		"file", file, "scope_id", output.ScopeID, "duration", output.Duration)
	server.Publish(ctx, file, output.ScopeID, output.Code)
}
