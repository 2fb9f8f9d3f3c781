package build

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jettary/vueify-through2/internal/types"
)

// TemplateTranslator turns template markup into a render-function
// pair. The real translator is supplied by the embedding pipeline;
// the compiler only depends on this boundary.
type TemplateTranslator interface {
	Translate(ctx context.Context, markup string, file string) (*types.CompiledTemplate, error)
}

// StyleRewriter rewrites compiled CSS for scoping. scoped reports
// whether the style section carried the scoped attribute; rewriters
// must return non-scoped CSS unchanged.
type StyleRewriter interface {
	Rewrite(ctx context.Context, css string, scopeID string, scoped bool) (string, error)
}

// TranslatorFunc adapts a function to the TemplateTranslator interface.
type TranslatorFunc func(ctx context.Context, markup string, file string) (*types.CompiledTemplate, error)

func (f TranslatorFunc) Translate(ctx context.Context, markup string, file string) (*types.CompiledTemplate, error) {
	return f(ctx, markup, file)
}

// RewriterFunc adapts a function to the StyleRewriter interface.
type RewriterFunc func(ctx context.Context, css string, scopeID string, scoped bool) (string, error)

func (f RewriterFunc) Rewrite(ctx context.Context, css string, scopeID string, scoped bool) (string, error) {
	return f(ctx, css, scopeID, scoped)
}

// staticTranslator is the fallback translator: it emits a render
// function that injects the markup as static HTML. It produces working
// output for markup without bindings; pipelines wanting real template
// compilation inject their own translator.
type staticTranslator struct{}

func (staticTranslator) Translate(_ context.Context, markup string, _ string) (*types.CompiledTemplate, error) {
	encoded, err := json.Marshal(strings.TrimSpace(markup))
	if err != nil {
		return nil, err
	}
	return &types.CompiledTemplate{
		Render: "function(){var _vm=this;var _h=_vm.$createElement;var _c=_vm._self._c||_h;" +
			"return _c('div',{domProps:{\"innerHTML\":" + string(encoded) + "}})}",
	}, nil
}

// selectorPattern matches the selector list preceding a declaration
// block.
var selectorPattern = regexp.MustCompile(`([^{}]+)(\{)`)

// attributeRewriter is the fallback scoping rewriter: it appends the
// scope attribute selector to every plain selector. At-rules and
// keyframe steps are left untouched. Pipelines with a real CSS
// toolchain inject their own rewriter.
type attributeRewriter struct{}

func (attributeRewriter) Rewrite(_ context.Context, css string, scopeID string, scoped bool) (string, error) {
	if !scoped {
		return css, nil
	}

	attr := "[" + scopeID + "]"
	return selectorPattern.ReplaceAllStringFunc(css, func(match string) string {
		sub := selectorPattern.FindStringSubmatch(match)
		selectors := sub[1]
		trimmed := strings.TrimSpace(selectors)
		if strings.HasPrefix(trimmed, "@") || isKeyframeStep(trimmed) {
			return match
		}

		parts := strings.Split(selectors, ",")
		for i, sel := range parts {
			sel = strings.TrimSpace(sel)
			if sel == "" {
				continue
			}
			parts[i] = sel + attr
		}
		return strings.Join(parts, ", ") + " {"
	}), nil
}

func isKeyframeStep(selector string) bool {
	switch {
	case selector == "from", selector == "to":
		return true
	case strings.HasSuffix(selector, "%"):
		return true
	}
	return false
}
