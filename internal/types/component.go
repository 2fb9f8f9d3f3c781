// Package types provides common type definitions used throughout the
// component compiler. This package contains the types exchanged between
// the parser, the part compilers, and the merge engine, kept here to
// avoid circular dependencies between packages.
package types

// PartKind identifies one of the three section kinds a component
// document may contain.
type PartKind string

const (
	PartTemplate PartKind = "template"
	PartScript   PartKind = "script"
	PartStyle    PartKind = "style"
)

// Document is the raw text of one component file together with its
// filesystem path. It is immutable input: nothing downstream of the
// parser mutates it.
type Document struct {
	// Path is the path of the component file as given by the caller
	Path string
	// Content is the raw document text
	Content []byte
}

// Part is one extracted section of a component document. Parts are
// created once by the parser and read-only afterward.
type Part struct {
	// Kind is the section kind (template, script, or style)
	Kind PartKind
	// Lang is the optional language tag from the lang attribute
	// (e.g. "coffee", "scss"); empty means the section's default language
	Lang string
	// Src is the optional external-source reference from the src
	// attribute, resolved relative to the document's directory
	Src string
	// Scoped indicates whether the scoped attribute was present
	// (style parts only)
	Scoped bool
	// Content is the raw inner text of the section
	Content string
	// Offset is the byte offset of Content within the document
	Offset int
	// Line is the 1-based document line on which Content begins,
	// used for source-map remapping
	Line int
}

// CompiledTemplate is the render-function pair produced by the
// template translator.
type CompiledTemplate struct {
	// Render is the render function source, a complete JavaScript
	// function expression
	Render string
	// StaticRenderFns are the hoisted static render function sources
	StaticRenderFns []string
}

// ResolvedParts accumulates the compiled parts of one compilation run.
// Each slot is written by exactly one part compiler; the merge engine
// reads it only after every part compiler has settled.
type ResolvedParts struct {
	// Template holds the compiled render-function pair (nil when the
	// document has no template section)
	Template *CompiledTemplate
	// Script holds the compiled script code (empty when the document
	// has no script section)
	Script string
	// ScriptMap holds the raw source map returned by the script
	// transform (nil when the transform returned plain code)
	ScriptMap []byte
	// Styles holds the compiled CSS of each style section in
	// document order
	Styles []string
}

// Size returns the approximate memory footprint of the resolved parts
// in bytes, used by the cache for LRU accounting.
func (rp *ResolvedParts) Size() int64 {
	size := int64(len(rp.Script) + len(rp.ScriptMap))
	if rp.Template != nil {
		size += int64(len(rp.Template.Render))
		for _, fn := range rp.Template.StaticRenderFns {
			size += int64(len(fn))
		}
	}
	for _, css := range rp.Styles {
		size += int64(len(css))
	}
	return size
}

// StyleExtract is the payload of a style notification: the compiled
// CSS of one document, handed to the embedding host for aggregation.
type StyleExtract struct {
	// Path is the component file the CSS came from
	Path string
	// CSS is the concatenated compiled style text
	CSS string
}
