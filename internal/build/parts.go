package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jettary/vueify-through2/internal/errors"
	"github.com/jettary/vueify-through2/internal/types"
)

// compileTemplate resolves the template part's content, runs it
// through the registry transform for its language, and hands the
// result to the template translator.
func (c *Compiler) compileTemplate(ctx context.Context, run *run, part *types.Part) error {
	content, err := c.resolveContent(ctx, run, part)
	if err != nil {
		return err
	}

	markup, _, err := c.transform(ctx, run, part, content)
	if err != nil {
		return c.compileError(run, part, content, err)
	}

	compiled, err := c.translator.Translate(ctx, markup, run.doc.Path)
	if err != nil {
		return c.compileError(run, part, markup, err)
	}

	run.resolved.Template = compiled
	return nil
}

// compileScript resolves the script part's content and runs it through
// the registry transform, keeping the transform's source map when one
// was produced.
func (c *Compiler) compileScript(ctx context.Context, run *run, part *types.Part) error {
	content, err := c.resolveContent(ctx, run, part)
	if err != nil {
		return err
	}

	code, mapJSON, err := c.transform(ctx, run, part, content)
	if err != nil {
		return c.compileError(run, part, content, err)
	}

	run.resolved.Script = code
	run.resolved.ScriptMap = mapJSON
	return nil
}

// compileStyle resolves one style part, runs it through the registry
// transform, and rewrites the result through the scope rewriter. The
// compiled CSS lands in the slot matching the part's document order.
func (c *Compiler) compileStyle(ctx context.Context, run *run, part *types.Part, slot int) error {
	content, err := c.resolveContent(ctx, run, part)
	if err != nil {
		return err
	}

	css, _, err := c.transform(ctx, run, part, content)
	if err != nil {
		return c.compileError(run, part, content, err)
	}

	css = strings.TrimSpace(css)
	scoped, err := c.rewriter.Rewrite(ctx, css, run.scopeID, part.Scoped)
	if err != nil {
		return c.compileError(run, part, css, err)
	}

	run.resolved.Styles[slot] = scoped
	if part.Scoped {
		run.markScoped()
	}
	return nil
}

// transform looks up the part's language tag in the registry and runs
// the transform. A missing entry is an identity pass-through, not an
// error: many sections intentionally have no preprocessing step.
func (c *Compiler) transform(ctx context.Context, run *run, part *types.Part, content string) (string, []byte, error) {
	t, ok := c.registry.Lookup(part.Lang)
	if !ok {
		return content, nil, nil
	}
	result, err := t(ctx, content, run.doc.Path)
	if err != nil {
		return "", nil, err
	}
	return result.Code, result.Map, nil
}

// resolveContent returns the part's inline content, or reads the
// externally-referenced file when the part carries a src attribute.
// The dependency notification is emitted before the read attempt so
// the host tracks the path as a rebuild trigger even when the file is
// missing. Read failures follow the configured policy: strict fails
// the compile, lenient logs and continues with empty content.
func (c *Compiler) resolveContent(ctx context.Context, run *run, part *types.Part) (string, error) {
	if part.Src == "" {
		return part.Content, nil
	}

	resolved := filepath.Join(filepath.Dir(run.doc.Path), part.Src)
	run.addDependency(resolved)
	c.notifyDependency(resolved)

	data, err := os.ReadFile(resolved)
	if err != nil {
		if c.opts.StrictSrc {
			return "", &errors.CompileError{
				File:  run.doc.Path,
				Part:  string(part.Kind),
				Cause: err,
			}
		}
		c.logger.Warn(ctx, err, "external part source unreadable, continuing with empty content",
			"src", resolved, "part", string(part.Kind))
		return "", nil
	}
	return string(data), nil
}

// compileError wraps a transform failure, parsing its output into
// structured diagnostics and attaching code frames against the
// section source where line information is available.
func (c *Compiler) compileError(run *run, part *types.Part, source string, err error) error {
	diags := c.diagnostics.Parse(err.Error())
	for _, d := range diags {
		if d.Frame == "" && d.Line > 0 {
			d.Frame = errors.CodeFrame(source, d.Line, d.Column, 2)
		}
	}
	return &errors.CompileError{
		File:        run.doc.Path,
		Part:        string(part.Kind),
		Cause:       err,
		Diagnostics: diags,
	}
}
