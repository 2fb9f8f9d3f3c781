// Package build implements the component compilation pipeline: it
// splits a component document into parts, compiles the parts
// concurrently through the pluggable registry, and merges the results
// into one executable output module with style injection, source-map
// stitching, and hot-reload instrumentation.
//
// A Compiler owns its own parts cache, so independent instances (for
// example in concurrent test runs) never interfere, and output for
// unchanged input is deterministic.
package build

import (
	"context"
	"sync"
	"time"

	goerrors "errors"

	"github.com/jettary/vueify-through2/internal/errors"
	"github.com/jettary/vueify-through2/internal/logging"
	"github.com/jettary/vueify-through2/internal/parser"
	"github.com/jettary/vueify-through2/internal/registry"
	"github.com/jettary/vueify-through2/internal/scope"
	"github.com/jettary/vueify-through2/internal/types"
)

// Options are the per-compiler settings accepted once at startup.
type Options struct {
	// SourceMap enables source-map generation and trailing map
	// embedding
	SourceMap bool
	// ExtractCSS disables inline style injection; styles only reach
	// the host through the style notification
	ExtractCSS bool
	// StrictSrc makes external-source read failures fatal instead of
	// logged empty content
	StrictSrc bool
	// CacheSize bounds the parts cache in bytes; zero means the
	// default
	CacheSize int64
	// CacheTTL bounds the age of parts cache entries; zero means the
	// default
	CacheTTL time.Duration
}

const (
	defaultCacheSize = 32 * 1024 * 1024
	defaultCacheTTL  = time.Hour
)

// DependencyHandler observes externally-referenced part files, one
// call per reference, emitted before the read attempt.
type DependencyHandler func(path string)

// StyleHandler observes extracted stylesheets, one call per document
// with styles present.
type StyleHandler func(extract types.StyleExtract)

// Compiler compiles component documents into executable modules. One
// instance is safe for concurrent Compile calls.
type Compiler struct {
	opts        Options
	registry    *registry.Registry
	translator  TemplateTranslator
	rewriter    StyleRewriter
	cache       *PartsCache
	metrics     *Metrics
	logger      logging.Logger
	diagnostics *errors.DiagnosticParser

	// env, when set, overrides the process environment for every
	// compile; nil means resolve from the OS per call
	env *Environment

	depHandlers   []DependencyHandler
	styleHandlers []StyleHandler
}

// Output is the result of one successful compilation.
type Output struct {
	// Code is the complete output module text, including any trailing
	// source-map comment
	Code string
	// ScopeID is the document's stable scope identifier
	ScopeID string
	// Dependencies lists the externally-referenced part files, in the
	// order their notifications fired
	Dependencies []string
	// Styles lists the extracted stylesheets reported for this
	// document
	Styles []types.StyleExtract
	// Duration is how long the compilation took
	Duration time.Duration
}

// run is the mutable state of one in-flight compilation.
type run struct {
	doc      types.Document
	scopeID  string
	resolved *types.ResolvedParts

	// templateLine and scriptLine are the document lines where those
	// sections begin, for source-map remapping
	templateLine int
	scriptLine   int

	mu     sync.Mutex
	deps   []string
	styles []types.StyleExtract
	scoped bool
}

func (r *run) addDependency(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps = append(r.deps, path)
}

func (r *run) markScoped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scoped = true
}

// New creates a compiler with the given options and registry. A nil
// registry gets an empty one (every language is identity); a nil
// logger discards output.
func New(opts Options, reg *registry.Registry, logger logging.Logger) *Compiler {
	if reg == nil {
		reg = registry.New()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	return &Compiler{
		opts:        opts,
		registry:    reg,
		translator:  staticTranslator{},
		rewriter:    attributeRewriter{},
		cache:       NewPartsCache(opts.CacheSize, opts.CacheTTL),
		metrics:     &Metrics{},
		logger:      logger.WithComponent("build"),
		diagnostics: errors.NewDiagnosticParser(),
	}
}

// SetTranslator replaces the template-to-render-function translator.
func (c *Compiler) SetTranslator(t TemplateTranslator) {
	c.translator = t
}

// SetRewriter replaces the style-scoping rewriter.
func (c *Compiler) SetRewriter(r StyleRewriter) {
	c.rewriter = r
}

// SetEnvironment pins the environment switches for every compile,
// overriding the process environment. Used by tests and by hosts that
// know their target at startup.
func (c *Compiler) SetEnvironment(env Environment) {
	c.env = &env
}

// OnDependency registers a dependency observer. Register before
// compiling; registration is not synchronized with in-flight compiles.
func (c *Compiler) OnDependency(fn DependencyHandler) {
	c.depHandlers = append(c.depHandlers, fn)
}

// OnStyle registers a style-extraction observer. Register before
// compiling.
func (c *Compiler) OnStyle(fn StyleHandler) {
	c.styleHandlers = append(c.styleHandlers, fn)
}

// Metrics returns a snapshot of the compiler's counters.
func (c *Compiler) Metrics() Metrics {
	return c.metrics.Snapshot()
}

// ClearCache drops the parts cache; the next compile of any file
// behaves like a first compile.
func (c *Compiler) ClearCache() {
	c.cache.Clear()
}

// Compile compiles one component document into an output module.
// Either a complete module is returned or an error; there is no
// partial output. Part compilations run concurrently and the merge
// waits for all of them; the first failure in document order aborts
// the run.
func (c *Compiler) Compile(ctx context.Context, content []byte, filePath string) (*Output, error) {
	start := time.Now()

	out, err := c.compile(ctx, content, filePath)
	duration := time.Since(start)
	c.metrics.record(duration, err)

	if err != nil {
		c.logDiagnostics(ctx, err)
		return nil, err
	}
	out.Duration = duration
	return out, nil
}

func (c *Compiler) compile(ctx context.Context, content []byte, filePath string) (*Output, error) {
	doc := types.Document{Path: filePath, Content: content}

	parts, err := parser.Parse(doc)
	if err != nil {
		return nil, err
	}

	styleCount := 0
	for i := range parts {
		if parts[i].Kind == types.PartStyle {
			styleCount++
		}
	}

	r := &run{
		doc:      doc,
		scopeID:  scope.ID(filePath),
		resolved: &types.ResolvedParts{Styles: make([]string, styleCount)},
	}

	// Join barrier: every part compiler runs in its own goroutine and
	// the merge never starts before all of them settle. Errors land in
	// slots indexed by document position so the reported failure is the
	// earliest failing section regardless of completion order.
	var (
		wg        sync.WaitGroup
		partErrs  = make([]error, len(parts))
		styleSlot = 0
	)
	for i := range parts {
		part := &parts[i]
		wg.Add(1)
		switch part.Kind {
		case types.PartTemplate:
			r.templateLine = part.Line
			go func(slot int, part *types.Part) {
				defer wg.Done()
				partErrs[slot] = c.compileTemplate(ctx, r, part)
			}(i, part)
		case types.PartScript:
			r.scriptLine = part.Line
			go func(slot int, part *types.Part) {
				defer wg.Done()
				partErrs[slot] = c.compileScript(ctx, r, part)
			}(i, part)
		case types.PartStyle:
			go func(slot, style int, part *types.Part) {
				defer wg.Done()
				partErrs[slot] = c.compileStyle(ctx, r, part, style)
			}(i, styleSlot, part)
			styleSlot++
		}
	}
	wg.Wait()

	for _, perr := range partErrs {
		if perr != nil {
			return nil, perr
		}
	}

	env := c.environment()
	code, err := c.merge(ctx, r, env)
	if err != nil {
		return nil, err
	}

	// Record this run for the next compile's hot-reload diff.
	c.cache.Set(r.scopeID, r.resolved)

	return &Output{
		Code:         code,
		ScopeID:      r.scopeID,
		Dependencies: r.deps,
		Styles:       r.styles,
	}, nil
}

func (c *Compiler) environment() Environment {
	if c.env != nil {
		return *c.env
	}
	return EnvironmentFromOS()
}

func (c *Compiler) notifyDependency(path string) {
	for _, fn := range c.depHandlers {
		fn(path)
	}
}

func (c *Compiler) notifyStyle(extract types.StyleExtract) {
	for _, fn := range c.styleHandlers {
		fn(extract)
	}
}

// logDiagnostics surfaces formatted diagnostics as a side channel,
// distinct from the returned error.
func (c *Compiler) logDiagnostics(ctx context.Context, err error) {
	var compileErr *errors.CompileError
	if !goerrors.As(err, &compileErr) {
		return
	}
	for _, d := range compileErr.Diagnostics {
		c.logger.Error(ctx, nil, d.Format(), "file", compileErr.File, "part", compileErr.Part)
	}
}
