package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticParser_Parse(t *testing.T) {
	dp := NewDiagnosticParser()

	t.Run("file line column format", func(t *testing.T) {
		diags := dp.Parse("app.vue:12:5: unexpected token")
		require.Len(t, diags, 1)
		assert.Equal(t, "app.vue", diags[0].File)
		assert.Equal(t, 12, diags[0].Line)
		assert.Equal(t, 5, diags[0].Column)
		assert.Equal(t, "unexpected token", diags[0].Message)
		assert.Equal(t, SeverityError, diags[0].Severity)
	})

	t.Run("file line format", func(t *testing.T) {
		diags := dp.Parse("style.scss:3: undefined variable $accent")
		require.Len(t, diags, 1)
		assert.Equal(t, "style.scss", diags[0].File)
		assert.Equal(t, 3, diags[0].Line)
		assert.Equal(t, 0, diags[0].Column)
	})

	t.Run("sass format", func(t *testing.T) {
		diags := dp.Parse("Error: invalid property name on line 7 of main.scss")
		require.Len(t, diags, 1)
		assert.Equal(t, "main.scss", diags[0].File)
		assert.Equal(t, 7, diags[0].Line)
		assert.Equal(t, "invalid property name", diags[0].Message)
	})

	t.Run("syntax error format", func(t *testing.T) {
		diags := dp.Parse("SyntaxError: unexpected identifier (4:12)")
		require.Len(t, diags, 1)
		assert.Empty(t, diags[0].File)
		assert.Equal(t, 4, diags[0].Line)
		assert.Equal(t, 12, diags[0].Column)
	})

	t.Run("generic fallback", func(t *testing.T) {
		diags := dp.Parse("command failed with exit status 1")
		require.Len(t, diags, 1)
		assert.Equal(t, "command failed with exit status 1", diags[0].Message)
		assert.Zero(t, diags[0].Line)
	})

	t.Run("ignores non error lines", func(t *testing.T) {
		diags := dp.Parse("compiling...\n\ndone in 42ms")
		assert.Empty(t, diags)
	})

	t.Run("multiple lines", func(t *testing.T) {
		output := "a.vue:1:1: first\nsome progress output\nb.vue:2:2: second"
		diags := dp.Parse(output)
		require.Len(t, diags, 2)
		assert.Equal(t, "a.vue", diags[0].File)
		assert.Equal(t, "b.vue", diags[1].File)
	})
}

func TestDiagnostic_Format(t *testing.T) {
	d := &Diagnostic{
		Severity: SeverityError,
		File:     "app.vue",
		Line:     3,
		Column:   8,
		Message:  "unexpected token",
	}
	out := d.Format()
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "app.vue:3:8")
	assert.Contains(t, out, "unexpected token")

	warn := &Diagnostic{Severity: SeverityWarning, Message: "deprecated mixin"}
	assert.Contains(t, warn.Format(), "[WARN] deprecated mixin")
}

func TestCompileError(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := &CompileError{File: "app.vue", Part: "script", Cause: cause}

	assert.Equal(t, "app.vue: script compilation failed: exit status 1", err.Error())
	assert.True(t, stderrors.Is(err, cause))

	var ce *CompileError
	require.True(t, stderrors.As(error(err), &ce))
	assert.Equal(t, "script", ce.Part)
}

func TestCodeFrame(t *testing.T) {
	source := "one\ntwo\nthree\nfour\nfive"

	t.Run("marks offending line", func(t *testing.T) {
		frame := CodeFrame(source, 3, 0, 1)
		assert.Contains(t, frame, "> 3 | three")
		assert.Contains(t, frame, "  2 | two")
		assert.Contains(t, frame, "  4 | four")
		assert.NotContains(t, frame, "one")
		assert.NotContains(t, frame, "five")
	})

	t.Run("caret under column", func(t *testing.T) {
		frame := CodeFrame(source, 2, 2, 0)
		assert.Contains(t, frame, "> 2 | two")
		assert.Contains(t, frame, " ^")
	})

	t.Run("clamps at boundaries", func(t *testing.T) {
		frame := CodeFrame(source, 1, 0, 3)
		assert.Contains(t, frame, "> 1 | one")
		assert.Contains(t, frame, "  4 | four")
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Empty(t, CodeFrame(source, 0, 0, 2))
		assert.Empty(t, CodeFrame(source, 99, 0, 2))
	})
}
