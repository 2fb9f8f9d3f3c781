package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecTransform adapts an external preprocessor command into a
// Transform. The section source is fed to the command on stdin and the
// compiled output read from stdout. This is how configuration-declared
// compilers (e.g. "scss: sass --stdin") are wired into the registry.
func ExecTransform(command string, args ...string) Transform {
	return func(ctx context.Context, source string, file string) (Result, error) {
		if err := validateCommand(command, args); err != nil {
			return Result{}, fmt.Errorf("compiler command validation failed: %w", err)
		}

		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Stdin = strings.NewReader(source)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return Result{}, fmt.Errorf("%s failed for %s: %w\n%s", command, file, err, stderr.String())
		}

		return Result{Code: stdout.String()}, nil
	}
}

// validateCommand rejects command configurations that could smuggle
// shell metacharacters or path traversal into the child process.
func validateCommand(command string, args []string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("empty command")
	}
	if err := validateArgument(command); err != nil {
		return fmt.Errorf("invalid command %q: %w", command, err)
	}
	for _, arg := range args {
		if err := validateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument %q: %w", arg, err)
		}
	}
	return nil
}

// validateArgument checks a single command argument.
func validateArgument(arg string) error {
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}
	if strings.Contains(arg, "..") {
		return fmt.Errorf("contains path traversal: %s", arg)
	}
	return nil
}
