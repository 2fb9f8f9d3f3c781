// Package scope derives the per-file identifiers used for CSS scoping,
// hot-reload record keys, and cache keys. IDs are a pure function of
// the file path, so recompiling the same file always yields the same
// identifier.
package scope

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// idLength is the number of hex characters kept from the path hash.
const idLength = 8

// ID returns the scope identifier for a component file path. The same
// path always produces the same identifier regardless of file content.
// The identifier is stamped verbatim as an attribute on rendered
// elements, so scoped CSS selects on "[<id>]"; it also keys the
// hot-reload record and the parts cache.
func ID(filePath string) string {
	sum := sha256.Sum256([]byte(filePath))
	return "data-v-" + hex.EncodeToString(sum[:])[:idLength]
}

// ContentHash returns a short hash of file content, used to
// disambiguate source-map source names when content changes but the
// path does not.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:idLength]
}

// ComponentName derives a display name from a component file path:
// "widgets/nav-bar.vue" becomes "NavBar".
func ComponentName(filePath string) string {
	base := filepath.Base(filePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	titler := cases.Title(language.English)
	var b strings.Builder
	for _, word := range strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	}) {
		b.WriteString(titler.String(word))
	}
	return b.String()
}
