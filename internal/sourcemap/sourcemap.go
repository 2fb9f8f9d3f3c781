// Package sourcemap builds V3 source maps for compiled component
// modules. The builder produces line-level mappings only: every
// generated line maps to column zero of one original document line,
// which is all the merge engine needs to attribute script lines and
// template regions back to the component file.
//
// Incoming maps from script preprocessors are consumed through
// github.com/go-sourcemap/sourcemap.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"

	gosourcemap "github.com/go-sourcemap/sourcemap"
)

// Builder accumulates line mappings for one generated module with a
// single original source.
type Builder struct {
	file          string
	source        string
	sourceContent string
	// byGenerated maps 1-based generated lines to 1-based original lines
	byGenerated map[int]int
	maxLine     int
}

// v3 is the serialized source map form.
type v3 struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// NewBuilder creates a builder for one generated file. source is the
// map's source name (base name plus content-hash disambiguator) and
// sourceContent the original document text embedded in the map.
func NewBuilder(file, source, sourceContent string) *Builder {
	return &Builder{
		file:          file,
		source:        source,
		sourceContent: sourceContent,
		byGenerated:   make(map[int]int),
	}
}

// AddMapping records that generated line genLine (1-based) originates
// from original line origLine (1-based). A later mapping for the same
// generated line replaces the earlier one.
func (b *Builder) AddMapping(genLine, origLine int) {
	if genLine < 1 || origLine < 1 {
		return
	}
	b.byGenerated[genLine] = origLine
	if genLine > b.maxLine {
		b.maxLine = genLine
	}
}

// MappedLines returns the number of generated lines that carry a
// mapping.
func (b *Builder) MappedLines() int {
	return len(b.byGenerated)
}

// OriginalLine returns the original line recorded for a generated
// line, if any.
func (b *Builder) OriginalLine(genLine int) (int, bool) {
	orig, ok := b.byGenerated[genLine]
	return orig, ok
}

// Encode serializes the map as V3 JSON.
func (b *Builder) Encode() ([]byte, error) {
	return json.Marshal(v3{
		Version:        3,
		File:           b.file,
		Sources:        []string{b.source},
		SourcesContent: []string{b.sourceContent},
		Names:          []string{},
		Mappings:       b.mappings(),
	})
}

// InlineComment returns the map as a trailing data-URL comment for
// embedding at the end of the generated module.
func (b *Builder) InlineComment() (string, error) {
	encoded, err := b.Encode()
	if err != nil {
		return "", err
	}
	return "//# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString(encoded), nil
}

// mappings renders the VLQ mappings string. Segments are
// [generatedColumn, sourceIndex, originalLine, originalColumn] with
// the usual relative encoding; columns are always zero.
func (b *Builder) mappings() string {
	var (
		out      []byte
		prevLine int // previous original line, 0-based, relative across segments
	)
	for gen := 1; gen <= b.maxLine; gen++ {
		if gen > 1 {
			out = append(out, ';')
		}
		orig, ok := b.byGenerated[gen]
		if !ok {
			continue
		}
		out = appendVLQ(out, 0)               // generated column
		out = appendVLQ(out, 0)               // source index
		out = appendVLQ(out, orig-1-prevLine) // original line delta
		out = appendVLQ(out, 0)               // original column
		prevLine = orig - 1
	}
	return string(out)
}

// ResolveOriginal maps a generated line of preprocessor output back to
// its original line using the preprocessor's own map. The consumer
// fuzzy-matches to the nearest earlier mapping; ok is false when the
// map cannot be parsed or the line is past every mapping, in which
// case the caller falls back to a 1:1 line correspondence.
func ResolveOriginal(mapJSON []byte, genLine int) (int, bool) {
	consumer, err := gosourcemap.Parse("", mapJSON)
	if err != nil {
		return 0, false
	}
	_, _, line, _, ok := consumer.Source(genLine, 0)
	if !ok || line == 0 {
		return 0, false
	}
	return line, true
}
