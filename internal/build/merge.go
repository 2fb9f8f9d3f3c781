package build

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jettary/vueify-through2/internal/scope"
	"github.com/jettary/vueify-through2/internal/sourcemap"
	"github.com/jettary/vueify-through2/internal/types"
)

// emitter accumulates the output module text while tracking how many
// lines have been written, which the source-map builder needs to
// offset script and template mappings.
type emitter struct {
	b     strings.Builder
	lines int
}

// emit writes s followed by a newline and advances the line count.
// s itself may span multiple lines.
func (e *emitter) emit(s string) {
	e.b.WriteString(s)
	e.b.WriteString("\n")
	e.lines += strings.Count(s, "\n") + 1
}

func (e *emitter) String() string {
	return e.b.String()
}

// merge assembles the final output module from the run's resolved
// parts. It only runs after every part compiler has settled
// successfully; the emission order is fixed and each step is gated by
// the environment and options as follows: style injection, script
// wrapping, options binding, render attachment, scope-id attachment,
// hot-reload instrumentation, map embedding.
func (c *Compiler) merge(ctx context.Context, run *run, env Environment) (string, error) {
	var (
		e  emitter
		rp = run.resolved
	)

	// Style assembly. The notification fires for the host to collect
	// stylesheets; inlining only happens when extraction is off.
	css := strings.Join(rp.Styles, "\n")
	stylesInlined := false
	if css != "" && !env.Server {
		extract := types.StyleExtract{Path: run.doc.Path, CSS: css}
		run.styles = append(run.styles, extract)
		c.notifyStyle(extract)
	}
	if css != "" && !c.opts.ExtractCSS {
		encoded, err := json.Marshal(css)
		if err != nil {
			return "", fmt.Errorf("encoding inline styles: %w", err)
		}
		e.emit(`var __vueify_style_dispose__ = require("vueify/lib/insert-css").insert(` + string(encoded) + `)`)
		stylesInlined = true
	}

	// Script emission: the compiled code runs inside an isolated
	// invocation scope so its top-level declarations cannot leak, and
	// the default export is normalized for both transpiler
	// conventions.
	var smap *sourcemap.Builder
	if rp.Script != "" {
		if c.opts.SourceMap {
			smap = c.buildScriptMap(&e, run)
		}
		e.emit(";(function(){")
		e.emit(rp.Script)
		e.emit("})()")
		e.emit("if (module.exports.__esModule) module.exports = module.exports.default")
	}

	// Options binding: every later step references this binding, never
	// the raw export.
	e.emit(`var __vue__options__ = (typeof module.exports === "function"? module.exports.options: module.exports)`)

	// Template attachment.
	if rp.Template != nil {
		if !env.Production && !env.Server {
			e.emit(`if (__vue__options__.functional) {console.error("[vueify] functional components are not supported and should be defined in plain js files using render functions.")}`)
		}
		regionStart := e.lines + 1
		e.emit("__vue__options__.render = " + rp.Template.Render)
		e.emit("__vue__options__.staticRenderFns = [" + strings.Join(rp.Template.StaticRenderFns, ",") + "]")
		if smap != nil && run.templateLine > 0 {
			// Template output is generated code with no internal map;
			// every line in the region points at the line where the
			// template section began.
			for line := regionStart; line <= e.lines; line++ {
				smap.AddMapping(line, run.templateLine)
			}
		}
	}

	// Scope-id attachment.
	if run.scoped {
		e.emit(`__vue__options__._scopeId = "` + run.scopeID + `"`)
	}

	// Hot-reload instrumentation.
	if env.HotReload() {
		c.emitHotReload(&e, run, stylesInlined)
	}

	// Map embedding.
	if smap != nil {
		comment, err := smap.InlineComment()
		if err != nil {
			return "", fmt.Errorf("encoding source map: %w", err)
		}
		e.emit(comment)
	}

	return e.String(), nil
}

// buildScriptMap constructs the source map for the script region. The
// map's source name carries a content-hash disambiguator so hot-reload
// map caching stays correct when content changes under an unchanged
// path. Script lines are offset by everything already emitted plus the
// invocation-scope wrapper line; an incoming map from the script
// transform resolves each line to its true original, otherwise lines
// map 1:1 onto the script section of the document.
func (c *Compiler) buildScriptMap(e *emitter, run *run) *sourcemap.Builder {
	base := filepath.Base(run.doc.Path)
	sourceName := base + "?" + scope.ContentHash(run.doc.Content)
	smap := sourcemap.NewBuilder(base, sourceName, string(run.doc.Content))

	scriptLines := strings.Count(run.resolved.Script, "\n") + 1
	offset := e.lines + 1 // the ";(function(){" wrapper line

	for i := 1; i <= scriptLines; i++ {
		orig := run.scriptLine + i - 1
		if run.resolved.ScriptMap != nil {
			if resolved, ok := sourcemap.ResolveOriginal(run.resolved.ScriptMap, i); ok {
				orig = run.scriptLine + resolved - 1
			}
		}
		smap.AddMapping(offset+i, orig)
	}
	return smap
}

// emitHotReload writes the guarded hot-reload block. The update
// strategy is decided at compile time from the cache diff: a changed
// script forces a full reload (resets component state), a changed
// template alone re-renders in place, and an unchanged component
// emits no update action at all.
func (c *Compiler) emitHotReload(e *emitter, run *run, stylesInlined bool) {
	prev, _ := c.cache.Get(run.scopeID)
	scriptChanged := prev == nil || prev.Script != run.resolved.Script
	templateChanged := prev == nil || !templateEqual(prev.Template, run.resolved.Template)

	e.emit("if (module.hot) {(function () {")
	e.emit(`  var hotAPI = require("vue-hot-reload-api")`)
	e.emit(`  hotAPI.install(require("vue"), true)`)
	e.emit("  if (!hotAPI.compatible) return")
	e.emit("  module.hot.accept()")
	if stylesInlined {
		e.emit("  module.hot.dispose(function () {")
		e.emit("    __vueify_style_dispose__()")
		e.emit("  })")
	}
	e.emit("  if (!module.hot.data) {")
	e.emit(`    hotAPI.createRecord("` + run.scopeID + `", __vue__options__)`)
	switch {
	case scriptChanged:
		e.emit("  } else {")
		e.emit(`    hotAPI.reload("` + run.scopeID + `", __vue__options__)`)
	case templateChanged:
		e.emit("  } else {")
		e.emit(`    hotAPI.rerender("` + run.scopeID + `", __vue__options__)`)
	}
	e.emit("  }")
	e.emit("})()}")
}

func templateEqual(a, b *types.CompiledTemplate) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Render != b.Render || len(a.StaticRenderFns) != len(b.StaticRenderFns) {
		return false
	}
	for i := range a.StaticRenderFns {
		if a.StaticRenderFns[i] != b.StaticRenderFns[i] {
			return false
		}
	}
	return true
}
