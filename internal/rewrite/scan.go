package rewrite

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ref is one marker reference found in a text: marker, alias, "/", remainder.
type Ref struct {
	// Start and End are byte offsets of the whole reference, marker included
	Start, End int
	Alias      string
	Remainder  string
}

// Text returns the reference as it appears in the scanned text.
func (r Ref) Text(text string) string {
	return text[r.Start:r.End]
}

// Path returns "_bmad/<alias>/<remainder>"-style display text for warnings,
// using the last segment of the marker as the root name.
func (r Ref) Path(marker string) string {
	root := strings.TrimSuffix(marker, "/")
	if i := strings.LastIndex(root, "/"); i >= 0 {
		root = root[i+1:]
	}
	return root + "/" + r.Alias + "/" + r.Remainder
}

// Scan returns every reference to marker in text, in order. The alias is one
// or more lowercase ASCII letters; the remainder runs up to the first
// whitespace, quote, angle bracket, brace, parenthesis or backtick and must
// not be empty.
func Scan(text, marker string) []Ref {
	if marker == "" {
		return nil
	}

	var refs []Ref
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], marker)
		if i < 0 {
			break
		}
		start := pos + i
		if ref, ok := scanAt(text, start, marker); ok {
			refs = append(refs, ref)
			pos = ref.End
			continue
		}
		pos = start + 1
	}
	return refs
}

// scanAt parses a reference whose marker begins at start.
func scanAt(text string, start int, marker string) (Ref, bool) {
	p := start + len(marker)

	aliasStart := p
	for p < len(text) && text[p] >= 'a' && text[p] <= 'z' {
		p++
	}
	if p == aliasStart || p >= len(text) || text[p] != '/' {
		return Ref{}, false
	}
	alias := text[aliasStart:p]
	p++

	restStart := p
	for p < len(text) {
		r, size := utf8.DecodeRuneInString(text[p:])
		if terminates(r) {
			break
		}
		p += size
	}
	if p == restStart {
		return Ref{}, false
	}

	return Ref{
		Start:     start,
		End:       p,
		Alias:     alias,
		Remainder: text[restStart:p],
	}, true
}

// terminates reports whether r ends a reference remainder.
func terminates(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '\'', '"', '<', '>', '{', '}', '(', ')', '`':
		return true
	}
	return false
}
