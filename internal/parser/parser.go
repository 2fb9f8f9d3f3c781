// Package parser extracts the template, script, and style sections
// from a component document. It tokenizes the document with the
// golang.org/x/net/html tokenizer, capturing each section's raw inner
// text verbatim together with the byte offset and line where the text
// begins, which the source-map builder later needs for line
// remapping.
package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/jettary/vueify-through2/internal/types"
)

// ParseError describes a malformed component document. It is fatal:
// no part compiler runs when the parser fails.
type ParseError struct {
	// Path is the component file being parsed
	Path string
	// Line is the 1-based line where the problem was detected
	Line int
	// Message describes the problem
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse splits a component document into its parts: at most one
// template part, at most one script part, and any number of style
// parts in document order. Text outside the three section kinds is
// ignored.
func Parse(doc types.Document) ([]types.Part, error) {
	text := string(doc.Content)
	z := html.NewTokenizer(strings.NewReader(text))

	var (
		parts       []types.Part
		offset      int
		line        = 1
		seenKind    = map[types.PartKind]bool{}
		sectionTags = map[string]types.PartKind{
			"template": types.PartTemplate,
			"script":   types.PartScript,
			"style":    types.PartStyle,
		}
	)

	for {
		tt := z.Next()
		raw := z.Raw()

		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return parts, nil
			}
			return nil, &ParseError{Path: doc.Path, Line: line, Message: z.Err().Error()}
		}

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			offset += len(raw)
			line += strings.Count(string(raw), "\n")
			continue
		}

		tok := z.Token()
		kind, ok := sectionTags[tok.Data]
		if !ok {
			offset += len(raw)
			line += strings.Count(string(raw), "\n")
			continue
		}

		if kind != types.PartStyle && seenKind[kind] {
			return nil, &ParseError{
				Path:    doc.Path,
				Line:    line,
				Message: fmt.Sprintf("duplicate <%s> block; a component may contain at most one", tok.Data),
			}
		}
		seenKind[kind] = true

		part := types.Part{Kind: kind}
		for _, attr := range tok.Attr {
			switch attr.Key {
			case "lang":
				part.Lang = attr.Val
			case "src":
				part.Src = attr.Val
			case "scoped":
				part.Scoped = true
			}
		}

		offset += len(raw)
		line += strings.Count(string(raw), "\n")
		part.Offset = offset
		part.Line = line

		// A self-closing section tag has no inner text; its content
		// comes from the src attribute. The tokenizer still flags script
		// and style as raw-text elements, so restart it past the tag to
		// tokenize the rest of the document normally.
		if tt == html.SelfClosingTagToken {
			parts = append(parts, part)
			z = html.NewTokenizer(strings.NewReader(text[offset:]))
			continue
		}

		content, consumed, consumedLines, err := readSection(z, tok.Data)
		if err != nil {
			return nil, &ParseError{Path: doc.Path, Line: part.Line, Message: err.Error()}
		}
		part.Content = content
		offset += consumed
		line += consumedLines

		parts = append(parts, part)
	}
}

// readSection consumes tokens until the matching end tag, returning
// the verbatim inner text. Template sections may nest further
// <template> tags, so the close tag is matched by depth.
func readSection(z *html.Tokenizer, tag string) (content string, consumed, lines int, err error) {
	var b strings.Builder
	depth := 0

	for {
		tt := z.Next()
		raw := string(z.Raw())

		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", 0, 0, fmt.Errorf("unexpected end of file, <%s> block is not closed", tag)
			}
			return "", 0, 0, z.Err()

		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == tag {
				if depth == 0 {
					consumed += len(raw)
					lines += strings.Count(raw, "\n")
					return b.String(), consumed, lines, nil
				}
				depth--
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == tag {
				depth++
			}
		}

		b.WriteString(raw)
		consumed += len(raw)
		lines += strings.Count(raw, "\n")
	}
}
