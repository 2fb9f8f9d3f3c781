package build

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jettary/vueify-through2/internal/errors"
	"github.com/jettary/vueify-through2/internal/parser"
	"github.com/jettary/vueify-through2/internal/registry"
	"github.com/jettary/vueify-through2/internal/scope"
	"github.com/jettary/vueify-through2/internal/sourcemap"
	"github.com/jettary/vueify-through2/internal/types"
)

const sampleComponent = `<template>
  <div class="app">Hello</div>
</template>
<script>
module.exports = {
  data: function () { return { msg: "hi" } }
}
</script>
<style scoped>
.app { color: red; }
</style>
`

// testCompiler returns a compiler pinned to a non-production,
// non-server, non-test environment so output carries the development
// instrumentation regardless of the host process environment.
func testCompiler(opts Options, reg *registry.Registry) *Compiler {
	c := New(opts, reg, nil)
	c.SetEnvironment(Environment{})
	return c
}

func TestCompile_ScriptOnly(t *testing.T) {
	c := testCompiler(Options{}, nil)
	c.SetEnvironment(Environment{Test: true})

	out, err := c.Compile(context.Background(), []byte("<script>\nmodule.exports = {}\n</script>\n"), "app.vue")
	require.NoError(t, err)

	lines := strings.Split(out.Code, "\n")
	assert.Equal(t, ";(function(){", lines[0])
	assert.Contains(t, out.Code, "module.exports = {}")
	assert.Contains(t, out.Code, "})()")
	assert.Contains(t, out.Code, "if (module.exports.__esModule) module.exports = module.exports.default")
	assert.Contains(t, out.Code, `var __vue__options__ = (typeof module.exports === "function"? module.exports.options: module.exports)`)

	assert.NotContains(t, out.Code, "insert-css")
	assert.NotContains(t, out.Code, "_scopeId")
	assert.NotContains(t, out.Code, "module.hot")
	assert.NotContains(t, out.Code, "__vue__options__.render")
}

func TestCompile_OutputOrder(t *testing.T) {
	c := testCompiler(Options{}, nil)

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	markers := []string{
		`require("vueify/lib/insert-css").insert(`,
		";(function(){",
		"if (module.exports.__esModule)",
		"var __vue__options__ = ",
		"__vue__options__.functional",
		"__vue__options__.render = ",
		"__vue__options__.staticRenderFns = ",
		"__vue__options__._scopeId = ",
		"if (module.hot)",
	}
	prev := -1
	for _, marker := range markers {
		pos := strings.Index(out.Code, marker)
		require.GreaterOrEqual(t, pos, 0, "missing %q", marker)
		assert.Greater(t, pos, prev, "%q out of order", marker)
		prev = pos
	}
}

func TestCompile_ScopedStyle(t *testing.T) {
	c := testCompiler(Options{}, nil)

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "components/app.vue")
	require.NoError(t, err)

	wantID := scope.ID("components/app.vue")
	assert.Equal(t, wantID, out.ScopeID)
	assert.Contains(t, out.Code, `__vue__options__._scopeId = "`+wantID+`"`)

	require.Len(t, out.Styles, 1)
	assert.Equal(t, "components/app.vue", out.Styles[0].Path)
	assert.Contains(t, out.Styles[0].CSS, "["+wantID+"]")
}

func TestCompile_ScopeIDMatchesStyleSelector(t *testing.T) {
	c := testCompiler(Options{}, nil)

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	// The runtime stamps the _scopeId value verbatim as an attribute on
	// rendered elements, so the scoped CSS must select on exactly the
	// value the output module attaches.
	match := regexp.MustCompile(`__vue__options__\._scopeId = "([^"]+)"`).FindStringSubmatch(out.Code)
	require.Len(t, match, 2)
	assert.Equal(t, out.ScopeID, match[1])

	require.Len(t, out.Styles, 1)
	assert.Contains(t, out.Styles[0].CSS, "["+match[1]+"]")
}

func TestCompile_UnscopedStyleOmitsScopeID(t *testing.T) {
	c := testCompiler(Options{}, nil)
	doc := "<style>\n.a { color: red; }\n</style>\n<script>\nmodule.exports = {}\n</script>\n"

	out, err := c.Compile(context.Background(), []byte(doc), "app.vue")
	require.NoError(t, err)

	assert.NotContains(t, out.Code, "_scopeId")
	assert.NotContains(t, out.Code, "[data-v-")
}

func TestCompile_MultipleStylesKeepDocumentOrder(t *testing.T) {
	c := testCompiler(Options{}, nil)
	c.SetEnvironment(Environment{Test: true})
	doc := "<style>\n.first { color: red; }\n</style>\n" +
		"<style>\n.second { color: blue; }\n</style>\n" +
		"<script>\nmodule.exports = {}\n</script>\n"

	out, err := c.Compile(context.Background(), []byte(doc), "app.vue")
	require.NoError(t, err)

	require.Len(t, out.Styles, 1)
	css := out.Styles[0].CSS
	assert.Less(t, strings.Index(css, ".first"), strings.Index(css, ".second"))

	encoded, err := json.Marshal(css)
	require.NoError(t, err)
	assert.Contains(t, out.Code, `.insert(`+string(encoded)+`)`)
}

func TestCompile_StyleNotification(t *testing.T) {
	c := testCompiler(Options{}, nil)

	var notified []string
	c.OnStyle(func(extract types.StyleExtract) {
		notified = append(notified, extract.Path)
	})

	_, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.vue"}, notified)
}

func TestCompile_ExtractCSS(t *testing.T) {
	c := testCompiler(Options{ExtractCSS: true}, nil)

	var styles []types.StyleExtract
	c.OnStyle(func(extract types.StyleExtract) { styles = append(styles, extract) })

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	assert.NotContains(t, out.Code, "insert-css")
	assert.NotContains(t, out.Code, "__vueify_style_dispose__")
	require.Len(t, styles, 1)
	assert.Contains(t, styles[0].CSS, "color: red")
}

func TestCompile_InlineStyleDisposer(t *testing.T) {
	c := testCompiler(Options{}, nil)

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	assert.Contains(t, out.Code, "var __vueify_style_dispose__ = ")
	assert.Contains(t, out.Code, "module.hot.dispose(function () {")
	assert.Contains(t, out.Code, "__vueify_style_dispose__()")
}

func TestCompile_ProductionEnvironment(t *testing.T) {
	c := testCompiler(Options{}, nil)
	c.SetEnvironment(Environment{Production: true})

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	assert.NotContains(t, out.Code, "module.hot")
	assert.NotContains(t, out.Code, "functional components are not supported")
	assert.Contains(t, out.Code, "__vue__options__.render")
}

func TestCompile_ServerEnvironment(t *testing.T) {
	c := testCompiler(Options{}, nil)
	c.SetEnvironment(Environment{Server: true})

	var notified int
	c.OnStyle(func(types.StyleExtract) { notified++ })

	out, err := c.Compile(context.Background(), []byte(sampleComponent), "app.vue")
	require.NoError(t, err)

	assert.Zero(t, notified)
	assert.Empty(t, out.Styles)
	assert.NotContains(t, out.Code, "module.hot")
	assert.NotContains(t, out.Code, "functional components are not supported")
}

func TestCompile_HotReloadStrategies(t *testing.T) {
	c := testCompiler(Options{}, nil)
	ctx := context.Background()

	doc := func(tmpl, name string) []byte {
		return []byte("<template>\n<div>" + tmpl + "</div>\n</template>\n<script>\nmodule.exports = { name: \"" + name + "\" }\n</script>\n")
	}

	t.Run("first compile forces reload", func(t *testing.T) {
		out, err := c.Compile(ctx, doc("a", "x"), "hot.vue")
		require.NoError(t, err)
		assert.Contains(t, out.Code, "hotAPI.reload(")
		assert.Contains(t, out.Code, `hotAPI.createRecord("`+out.ScopeID+`"`)
	})

	t.Run("identical recompile emits no update action", func(t *testing.T) {
		out, err := c.Compile(ctx, doc("a", "x"), "hot.vue")
		require.NoError(t, err)
		assert.NotContains(t, out.Code, "hotAPI.reload(")
		assert.NotContains(t, out.Code, "hotAPI.rerender(")
		assert.Contains(t, out.Code, "hotAPI.createRecord(")
	})

	t.Run("template-only change rerenders", func(t *testing.T) {
		out, err := c.Compile(ctx, doc("b", "x"), "hot.vue")
		require.NoError(t, err)
		assert.Contains(t, out.Code, "hotAPI.rerender(")
		assert.NotContains(t, out.Code, "hotAPI.reload(")
	})

	t.Run("script change reloads", func(t *testing.T) {
		out, err := c.Compile(ctx, doc("b", "y"), "hot.vue")
		require.NoError(t, err)
		assert.Contains(t, out.Code, "hotAPI.reload(")
		assert.NotContains(t, out.Code, "hotAPI.rerender(")
	})

	t.Run("cleared cache behaves like first compile", func(t *testing.T) {
		c.ClearCache()
		out, err := c.Compile(ctx, doc("b", "y"), "hot.vue")
		require.NoError(t, err)
		assert.Contains(t, out.Code, "hotAPI.reload(")
	})
}

func TestCompile_Deterministic(t *testing.T) {
	doc := []byte(sampleComponent)

	first := testCompiler(Options{SourceMap: true}, nil)
	first.SetEnvironment(Environment{Test: true})
	second := testCompiler(Options{SourceMap: true}, nil)
	second.SetEnvironment(Environment{Test: true})

	a, err := first.Compile(context.Background(), doc, "app.vue")
	require.NoError(t, err)
	b, err := first.Compile(context.Background(), doc, "app.vue")
	require.NoError(t, err)
	other, err := second.Compile(context.Background(), doc, "app.vue")
	require.NoError(t, err)

	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Code, other.Code)
}

func TestCompile_SrcAttribute(t *testing.T) {
	ctx := context.Background()

	t.Run("reads external file relative to document", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "logic.js"), []byte("module.exports = { external: true }"), 0o644))

		c := testCompiler(Options{}, nil)
		doc := `<script src="./logic.js"></script>`

		out, err := c.Compile(ctx, []byte(doc), filepath.Join(dir, "app.vue"))
		require.NoError(t, err)
		assert.Contains(t, out.Code, "{ external: true }")
		assert.Equal(t, []string{filepath.Join(dir, "logic.js")}, out.Dependencies)
	})

	t.Run("missing file is lenient by default", func(t *testing.T) {
		dir := t.TempDir()
		c := testCompiler(Options{}, nil)

		var seen []string
		c.OnDependency(func(path string) { seen = append(seen, path) })

		doc := `<script src="./missing.js"></script>`
		out, err := c.Compile(ctx, []byte(doc), filepath.Join(dir, "app.vue"))
		require.NoError(t, err)

		// The path is still reported so the host can watch for the
		// file appearing later.
		want := filepath.Join(dir, "missing.js")
		assert.Equal(t, []string{want}, seen)
		assert.Equal(t, []string{want}, out.Dependencies)
	})

	t.Run("missing file fails under strict policy", func(t *testing.T) {
		dir := t.TempDir()
		c := testCompiler(Options{StrictSrc: true}, nil)

		var seen []string
		c.OnDependency(func(path string) { seen = append(seen, path) })

		doc := `<script src="./missing.js"></script>`
		_, err := c.Compile(ctx, []byte(doc), filepath.Join(dir, "app.vue"))
		require.Error(t, err)

		var compileErr *errors.CompileError
		require.ErrorAs(t, err, &compileErr)
		assert.Equal(t, "script", compileErr.Part)
		// Notification still fires before the failed read.
		assert.Equal(t, []string{filepath.Join(dir, "missing.js")}, seen)
	})
}

func TestCompile_TransformFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps the failing part", func(t *testing.T) {
		reg := registry.New()
		reg.Register("coffee", func(ctx context.Context, source, file string) (registry.Result, error) {
			return registry.Result{}, fmt.Errorf("app.vue:2:1: unexpected indentation")
		})
		c := testCompiler(Options{}, reg)

		doc := "<script lang=\"coffee\">\nbroken\n</script>\n"
		_, err := c.Compile(ctx, []byte(doc), "app.vue")
		require.Error(t, err)

		var compileErr *errors.CompileError
		require.ErrorAs(t, err, &compileErr)
		assert.Equal(t, "app.vue", compileErr.File)
		assert.Equal(t, "script", compileErr.Part)
		require.NotEmpty(t, compileErr.Diagnostics)
		assert.Equal(t, 2, compileErr.Diagnostics[0].Line)
		assert.NotEmpty(t, compileErr.Diagnostics[0].Frame)
	})

	t.Run("first failure in document order wins", func(t *testing.T) {
		reg := registry.New()
		reg.Register("jade", func(ctx context.Context, source, file string) (registry.Result, error) {
			return registry.Result{}, fmt.Errorf("template failed")
		})
		reg.Register("scss", func(ctx context.Context, source, file string) (registry.Result, error) {
			return registry.Result{}, fmt.Errorf("style failed")
		})
		c := testCompiler(Options{}, reg)

		// The style section comes first in the document, so its failure
		// is the one reported even though the template also fails.
		doc := "<style lang=\"scss\">\n.a {}\n</style>\n<template lang=\"jade\">\ndiv\n</template>\n"
		for i := 0; i < 10; i++ {
			_, err := c.Compile(ctx, []byte(doc), "app.vue")
			require.Error(t, err)

			var compileErr *errors.CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, "style", compileErr.Part)
		}
	})
}

func TestCompile_ParseFailure(t *testing.T) {
	c := testCompiler(Options{}, nil)

	doc := "<script>\na\n</script>\n<script>\nb\n</script>\n"
	_, err := c.Compile(context.Background(), []byte(doc), "app.vue")
	require.Error(t, err)

	var parseErr *parser.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestCompiler_Metrics(t *testing.T) {
	c := testCompiler(Options{}, nil)
	ctx := context.Background()

	_, err := c.Compile(ctx, []byte("<script>\nok\n</script>\n"), "a.vue")
	require.NoError(t, err)
	_, err = c.Compile(ctx, []byte("<script>\na\n</script>\n<script>\nb\n</script>\n"), "b.vue")
	require.Error(t, err)

	m := c.Metrics()
	assert.Equal(t, int64(2), m.TotalCompiles)
	assert.Equal(t, int64(1), m.SuccessfulCompiles)
	assert.Equal(t, int64(1), m.FailedCompiles)
}

func TestCompile_SourceMap(t *testing.T) {
	doc := "<template>\n  <div>x</div>\n</template>\n<script>\nvar a = 1\nvar b = 2\nmodule.exports = {}\n</script>\n"

	c := testCompiler(Options{SourceMap: true}, nil)
	c.SetEnvironment(Environment{Test: true})

	out, err := c.Compile(context.Background(), []byte(doc), "app.vue")
	require.NoError(t, err)

	mapJSON := trailingMap(t, out.Code)

	var m struct {
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Mappings       string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(mapJSON, &m))
	require.Len(t, m.Sources, 1)
	assert.Equal(t, "app.vue?"+scope.ContentHash([]byte(doc)), m.Sources[0])
	assert.Equal(t, doc, m.SourcesContent[0])

	// The wrapper line pushes script lines down by one; "var a = 1" is
	// generated line 3 and document line 5.
	line, ok := sourcemap.ResolveOriginal(mapJSON, 3)
	require.True(t, ok)
	assert.Equal(t, 5, line)

	// Everything in the render-function region points at the line the
	// template section began on.
	renderLine := lineOf(t, out.Code, "__vue__options__.render = ")
	line, ok = sourcemap.ResolveOriginal(mapJSON, renderLine)
	require.True(t, ok)
	assert.Equal(t, 1, line)

	line, ok = sourcemap.ResolveOriginal(mapJSON, renderLine+1)
	require.True(t, ok)
	assert.Equal(t, 1, line)

	// Synthesized lines between the regions carry no mapping. The
	// consumer fuzzy-matches queries to the nearest earlier mapping, so
	// check the raw mappings string instead: the line's segment is empty.
	optionsLine := lineOf(t, out.Code, "var __vue__options__ = ")
	segments := strings.Split(m.Mappings, ";")
	require.Greater(t, len(segments), optionsLine-1)
	assert.Empty(t, segments[optionsLine-1])
}

func TestCompile_SourceMapHonorsTransformMap(t *testing.T) {
	// A script transform that reports its own map: its single output
	// line originates from line 2 of the section source.
	reg := registry.New()
	reg.Register("coffee", func(ctx context.Context, source, file string) (registry.Result, error) {
		b := sourcemap.NewBuilder(file, file, source)
		b.AddMapping(1, 2)
		encoded, err := b.Encode()
		if err != nil {
			return registry.Result{}, err
		}
		return registry.Result{Code: "var compiled = true", Map: encoded}, nil
	})

	c := testCompiler(Options{SourceMap: true}, reg)
	c.SetEnvironment(Environment{Test: true})

	doc := "<script lang=\"coffee\">\ncompiled = yes\n</script>\n"
	out, err := c.Compile(context.Background(), []byte(doc), "app.vue")
	require.NoError(t, err)

	mapJSON := trailingMap(t, out.Code)

	// Generated line 2 is the transform's output; the transform map
	// says it came from section line 2, which is document line 2.
	line, ok := sourcemap.ResolveOriginal(mapJSON, 2)
	require.True(t, ok)
	assert.Equal(t, 2, line)
}

// trailingMap extracts and decodes the inline source-map comment at the
// end of an output module.
func trailingMap(t *testing.T, code string) []byte {
	t.Helper()
	const prefix = "//# sourceMappingURL=data:application/json;base64,"
	idx := strings.LastIndex(code, prefix)
	require.GreaterOrEqual(t, idx, 0, "output carries no source-map comment")
	payload := strings.TrimSpace(code[idx+len(prefix):])
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	return decoded
}

// lineOf returns the 1-based output line containing marker.
func lineOf(t *testing.T, code, marker string) int {
	t.Helper()
	idx := strings.Index(code, marker)
	require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
	return strings.Count(code[:idx], "\n") + 1
}
