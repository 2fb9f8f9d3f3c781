// Package registry maps language tags to source transforms. The
// registry is the pluggable seam of the compiler: part compilers look
// up the transform for their section's language tag and run it, and a
// missing entry means identity pass-through rather than an error,
// because many valid documents have sections with no preprocessing
// step at all.
//
// Transforms are expected to be registered before compilation starts.
// The registry is safe for concurrent lookup during compilation;
// registering while compiles are in flight is not supported.
package registry

import "context"

// Result is the output of a transform: compiled code, and optionally
// the raw source map produced alongside it.
type Result struct {
	// Code is the compiled source text
	Code string
	// Map is the raw V3 source map JSON, or nil when the transform
	// does not produce one
	Map []byte
}

// Transform compiles one section's source text. file is the component
// file path, for diagnostics and relative resolution inside the
// transform.
type Transform func(ctx context.Context, source string, file string) (Result, error)

// Registry holds the language tag to transform mapping.
type Registry struct {
	transforms map[string]Transform
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// Register installs a transform for a language tag, replacing any
// existing entry for that tag.
func (r *Registry) Register(lang string, t Transform) {
	r.transforms[lang] = t
}

// Lookup returns the transform for a language tag. The second return
// value is false when no transform is registered, in which case the
// caller passes content through unchanged.
func (r *Registry) Lookup(lang string) (Transform, bool) {
	t, ok := r.transforms[lang]
	return t, ok
}

// Merge installs every transform from m, replacing existing entries
// with the same tag. Used to fold configuration-declared compilers
// into the built-in set without discarding it.
func (r *Registry) Merge(m map[string]Transform) {
	for lang, t := range m {
		r.transforms[lang] = t
	}
}

// Languages returns the registered language tags, for diagnostics.
func (r *Registry) Languages() []string {
	langs := make([]string, 0, len(r.transforms))
	for lang := range r.transforms {
		langs = append(langs, lang)
	}
	return langs
}
